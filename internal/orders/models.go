package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// BuyerDetails is the contact/shipping snapshot captured on the order at
// placement time. Every field is required.
type BuyerDetails struct {
	MpesaCode   string `json:"mpesa_code"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Location    string `json:"location"`
	Age         int    `json:"age"`
	Email       string `json:"email"`
	Gender      Gender `json:"gender"`
}

// Violations returns the names of all missing or invalid fields, not just
// the first one found.
func (b BuyerDetails) Violations() []string {
	var out []string
	if b.MpesaCode == "" {
		out = append(out, "mpesa_code")
	}
	if b.FirstName == "" {
		out = append(out, "first_name")
	}
	if b.LastName == "" {
		out = append(out, "last_name")
	}
	if b.PhoneNumber == "" {
		out = append(out, "phone_number")
	}
	if b.Location == "" {
		out = append(out, "location")
	}
	if b.Age <= 0 {
		out = append(out, "age")
	}
	if b.Email == "" {
		out = append(out, "email")
	}
	if !b.Gender.Valid() {
		out = append(out, "gender")
	}
	return out
}

type Order struct {
	ID          string          `json:"id"`
	Code        string          `json:"order_code"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Delivery    bool            `json:"delivery"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Status      Status          `json:"status"`
	Buyer       BuyerDetails    `json:"buyer"`
	Items       []Item          `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Item is a point-in-time copy of a cart line. Name and UnitPrice are
// snapshots from the catalog at placement and never change afterwards.
type Item struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"-"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Tracking is the read model returned by Track.
type Tracking struct {
	OrderID string `json:"order_id"`
	Status  Status `json:"status"`
}

// StatusCacheEntry is the cached form of Tracking. UserID rides along so a
// cache hit can still enforce ownership.
type StatusCacheEntry struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Status  Status `json:"status"`
}
