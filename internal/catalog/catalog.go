package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("product not found")

	// ErrStockConflict means a stock adjustment would drive the count
	// negative. The caller decides whether to retry or surface it.
	ErrStockConflict = errors.New("insufficient stock")
)

type Category string

const (
	CategoryEntertainment Category = "Entertainment"
	CategoryNetworking    Category = "Networking & Connectivity"
	CategoryKitchenware   Category = "Kitchenware"
	CategoryAppliances    Category = "General Appliances"
	CategoryCleaning      Category = "Cleaning Tools"
	CategoryAccessories   Category = "Accessories"
	CategorySpareParts    Category = "Electrical Spare Parts"
)

func Categories() []Category {
	return []Category{
		CategoryEntertainment,
		CategoryNetworking,
		CategoryKitchenware,
		CategoryAppliances,
		CategoryCleaning,
		CategoryAccessories,
		CategorySpareParts,
	}
}

func (c Category) Valid() bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    Category        `json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Filter narrows ListProducts. Name matches case-insensitive substrings,
// Category matches case-insensitive exact, price bounds are inclusive.
type Filter struct {
	Name     string
	Category string
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
}

type Store interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, f Filter) ([]Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error

	// AdjustStock changes stock by delta. It fails with ErrStockConflict
	// if the result would be negative, leaving the count untouched.
	AdjustStock(ctx context.Context, id string, delta int) error
}
