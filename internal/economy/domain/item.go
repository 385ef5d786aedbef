package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tavernworks/treasury/internal/errors"
)

var (
	// ErrItemNameEmpty indicates a catalog item without a name.
	ErrItemNameEmpty = apperrors.New(apperrors.CodeItemNameEmpty, "item name is required")
	// ErrItemPriceNotPositive indicates a non-positive item price.
	ErrItemPriceNotPositive = apperrors.New(apperrors.CodeItemPriceNotPositive, "item price must be greater than zero")
)

// Item is one purchasable catalog entry. Names are unique within the shop.
type Item struct {
	Name        string
	Price       decimal.Decimal
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewItem creates a catalog item.
func NewItem(name string, price decimal.Decimal, description string, now time.Time) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, ErrItemNameEmpty
	}
	if !price.IsPositive() {
		return Item{}, ErrItemPriceNotPositive
	}
	createdAt := now.UTC()
	return Item{
		Name:        name,
		Price:       price,
		Description: description,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// Reprice returns the item with a new price.
func (i Item) Reprice(price decimal.Decimal, now time.Time) (Item, error) {
	if !price.IsPositive() {
		return Item{}, ErrItemPriceNotPositive
	}
	updated := i
	updated.Price = price
	updated.UpdatedAt = now.UTC()
	return updated, nil
}
