// Package shop manages the purchasable item catalog and runs purchases
// against the ledger.
package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tavernworks/treasury/internal/economy"
	"github.com/tavernworks/treasury/internal/economy/domain"
	apperrors "github.com/tavernworks/treasury/internal/errors"
	"github.com/tavernworks/treasury/internal/storage"
)

// Service owns the item catalog and the purchase flow.
type Service struct {
	catalog storage.CatalogStore
	ledger  *economy.Ledger

	now func() time.Time
}

// PurchaseResult reports one completed purchase.
type PurchaseResult struct {
	Item     domain.Item
	Quantity int
	Total    decimal.Decimal
	Balance  decimal.Decimal
}

// NewService creates the shop service.
func NewService(catalog storage.CatalogStore, ledger *economy.Ledger) (*Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	return &Service{catalog: catalog, ledger: ledger, now: time.Now}, nil
}

// UpsertItem creates or replaces the catalog entry under the item's name.
// The stored record is returned so updates keep their original CreatedAt.
func (s *Service) UpsertItem(ctx context.Context, name string, price decimal.Decimal, description string) (domain.Item, error) {
	item, err := domain.NewItem(name, price, description, s.now())
	if err != nil {
		return domain.Item{}, err
	}
	if err := s.catalog.PutItem(ctx, item); err != nil {
		return domain.Item{}, storeError("put item", err)
	}
	stored, err := s.catalog.GetItem(ctx, item.Name)
	if err != nil {
		return domain.Item{}, storeError("read item", err)
	}
	return stored, nil
}

// Item returns one catalog entry by name, case-insensitively.
func (s *Service) Item(ctx context.Context, name string) (domain.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Item{}, domain.ErrItemNameEmpty
	}
	item, err := s.catalog.GetItem(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Item{}, itemNotFound(name)
		}
		return domain.Item{}, storeError("read item", err)
	}
	return item, nil
}

// ListItems returns the catalog sorted by name.
func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	items, err := s.catalog.ListItems(ctx)
	if err != nil {
		return nil, storeError("list items", err)
	}
	return items, nil
}

// RemoveItem deletes a catalog entry by name.
func (s *Service) RemoveItem(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrItemNameEmpty
	}
	if err := s.catalog.DeleteItem(ctx, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return itemNotFound(name)
		}
		return storeError("delete item", err)
	}
	return nil
}

// Purchase debits the actor the item price times quantity. The buyer must
// already be loaded in the ledger; the debit carries the purchase as its
// journal reason.
func (s *Service) Purchase(ctx context.Context, actorID, name string, quantity int) (PurchaseResult, error) {
	if quantity <= 0 {
		return PurchaseResult{}, apperrors.WithMetadata(
			apperrors.CodeQuantityNotPositive,
			"quantity must be at least 1",
			map[string]string{"Quantity": fmt.Sprintf("%d", quantity)},
		)
	}
	item, err := s.Item(ctx, name)
	if err != nil {
		return PurchaseResult{}, err
	}

	total := domain.RoundMoney(item.Price.Mul(decimal.NewFromInt(int64(quantity))))
	reason := fmt.Sprintf("purchase: %dx %s", quantity, item.Name)
	debit, err := s.ledger.Debit(ctx, actorID, total, reason)
	if err != nil {
		return PurchaseResult{}, err
	}
	return PurchaseResult{
		Item:     item,
		Quantity: quantity,
		Total:    total,
		Balance:  debit.Balance,
	}, nil
}

func itemNotFound(name string) error {
	return apperrors.WithMetadata(
		apperrors.CodeItemNotFound,
		fmt.Sprintf("item %s not found", name),
		map[string]string{"Name": name},
	)
}

func storeError(op string, err error) error {
	return apperrors.Wrap(apperrors.CodeStoreUnavailable, "store unavailable during "+op, err)
}
