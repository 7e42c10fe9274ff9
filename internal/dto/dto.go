package dto

type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Message     string `json:"message,omitempty"`
}

type OrderItemView struct {
	ListingID string `json:"listing_id"`
	Title     string `json:"title"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderView struct {
	OrderID  string          `json:"order_id"`
	Status   string          `json:"status"`
	Total    string          `json:"total"`
	Currency string          `json:"currency"`
	Items    []OrderItemView `json:"items,omitempty"`
}

type CartItemView struct {
	ListingID string `json:"listing_id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
}

type CartView struct {
	Items []CartItemView `json:"items"`
	Total string         `json:"total"`
}

type AddLocalMethodRequest struct {
	Kind       string `json:"kind"`
	Identifier string `json:"identifier"`
}

type StoredMethodView struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

type PaymentSettingsResponse struct {
	Region       string             `json:"region"`
	Currency     string             `json:"currency"`
	CardMethods  []StoredMethodView `json:"card_methods"`
	LocalMethods []StoredMethodView `json:"local_methods"`
}

type SetupIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

type RegionResponse struct {
	Region   string `json:"region"`
	Currency string `json:"currency"`
}
