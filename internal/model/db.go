package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	// Paid means the gateway confirmed payment via the success callback.
	OrderStatusPaid OrderStatus = "paid"
	// Completed means settled outside any gateway (offline fallback).
	OrderStatusCompleted OrderStatus = "completed"
	// Failed means the gateway session could not be created. Kept distinct
	// from Completed so unpaid orders never look settled.
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type User struct {
	ID    string `gorm:"primaryKey;size:64;not null"`
	Email string `gorm:"size:255;index"`
	Name  string `gorm:"size:128"`
	// lazily provisioned identity in the card gateway's namespace
	StripeCustomerID string `gorm:"size:64;index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Listing struct {
	ID       string          `gorm:"primaryKey;size:64;not null"`
	SellerID string          `gorm:"size:64;index;not null"`
	Title    string          `gorm:"size:255;not null"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency string          `gorm:"size:8;not null"`
	Active   bool            `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is per-user scratch state: one unit per listing, no quantity.
type CartItem struct {
	UserID    string `gorm:"primaryKey;size:64;not null"`
	ListingID string `gorm:"primaryKey;size:64;not null"`
	CreatedAt time.Time
}

type Order struct {
	ID       string          `gorm:"primaryKey;size:64;not null"`
	UserID   string          `gorm:"size:64;index;not null"`
	Status   OrderStatus     `gorm:"size:32;index;not null"`
	Total    decimal.Decimal `gorm:"type:decimal(10,2);not null"` // snapshot sum, never recomputed
	Currency string          `gorm:"size:8;not null"`

	// which gateway (if any) holds the hosted session for this order
	Gateway    string `gorm:"size:32"`
	GatewayRef string `gorm:"size:128;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → order.id
	OrderID string `gorm:"size:64;index;not null"`
	// FK → listing.id; title/price are copied, later listing edits do not
	// touch historical orders
	ListingID string          `gorm:"size:64;index;not null"`
	Title     string          `gorm:"size:255;not null"`
	Quantity  int32           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency  string          `gorm:"size:8;not null"`

	CreatedAt time.Time
}

// LocalPaymentMethod is a user-entered wallet identifier for regions where
// card rails are not the norm. No external verification; the identifier is
// stored masked. At most one row per user has IsDefault set.
type LocalPaymentMethod struct {
	ID         string `gorm:"primaryKey;size:64;not null"`
	UserID     string `gorm:"size:64;index;not null"`
	Region     string `gorm:"size:8;not null"`
	Kind       string `gorm:"size:32;not null"` // e.g. MOBILE_WALLET
	Identifier string `gorm:"size:64;not null"` // masked, all but last 4
	IsDefault  bool   `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegionLookup caches IP geolocation results for a day.
type RegionLookup struct {
	IP        string    `gorm:"primaryKey;size:64;not null"`
	Region    string    `gorm:"size:8;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}
