package model

// Region is a coarse geographic classification driving currency display and
// the set of payment methods offered. It carries no authorization weight.
type Region string

const (
	RegionAE     Region = "ae"
	RegionSA     Region = "sa"
	RegionGlobal Region = "intl"
)

func (r Region) Valid() bool {
	switch r {
	case RegionAE, RegionSA, RegionGlobal:
		return true
	}
	return false
}

func (r Region) Currency() string {
	switch r {
	case RegionAE:
		return "AED"
	case RegionSA:
		return "SAR"
	default:
		return "USD"
	}
}
