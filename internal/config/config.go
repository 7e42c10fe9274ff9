package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"marketplace.db"`

	Auth   Auth   `envPrefix:"AUTH_"`
	Region Region `envPrefix:"REGION_"`
	Stripe Stripe `envPrefix:"STRIPE_"`
	Telr   Telr   `envPrefix:"TELR_"`
}

// Stripe is the hosted-checkout card gateway. An empty SecretKey disables
// the integration; every call site must degrade instead of failing.
type Stripe struct {
	SecretKey string `env:"SECRET_KEY"`
}

func (s Stripe) Configured() bool {
	return s.SecretKey != ""
}

// Telr is the hosted-token gateway offered in Gulf regions.
type Telr struct {
	StoreID       string `env:"STORE_ID"`
	AuthKey       string `env:"AUTH_KEY"`
	SigningSecret string `env:"SIGNING_SECRET"`
	APIURL        string `env:"API_URL" envDefault:"https://secure.telr.com/gateway/order.json"`
	TestMode      bool   `env:"TEST_MODE" envDefault:"false"`
}

func (t Telr) Configured() bool {
	return t.StoreID != "" && t.AuthKey != "" && t.SigningSecret != ""
}

type Auth struct {
	// HS256 secret for bearer tokens. Empty means dev mode: every request
	// runs as a fixed demo user.
	JWTSecret string `env:"JWT_SECRET"`
}

type Region struct {
	Default  string        `env:"DEFAULT" envDefault:"intl"`
	GeoIPURL string        `env:"GEOIP_URL" envDefault:"http://ip-api.com/json"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"24h"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
