package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evielund/sitboard/internal/domain"
)

// Service assembles board snapshots from the gateway and passes moves
// through to it. Every load is a full canonical replacement; the service
// holds no state of its own.
type Service struct {
	gateway Gateway
	clock   Clock
}

// NewService constructs a new value for this package.
func NewService(gateway Gateway, clock Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{gateway: gateway, clock: clock}
}

// LoadBoard fetches columns and items and builds the canonical snapshot.
// Used for the initial load and for every refresh after a settle.
func (s *Service) LoadBoard(ctx context.Context) (domain.Board, error) {
	columns, err := s.gateway.ListColumns(ctx)
	if err != nil {
		return domain.Board{}, fmt.Errorf("list columns: %w", err)
	}
	items, err := s.gateway.ListItems(ctx)
	if err != nil {
		return domain.Board{}, fmt.Errorf("list items: %w", err)
	}
	active := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if item.ArchivedAt != nil {
			continue
		}
		active = append(active, item)
	}
	return domain.ReplaceAll(active, columns), nil
}

// MoveItem validates and dispatches one move command.
func (s *Service) MoveItem(ctx context.Context, itemID, columnKey string, position int) (domain.Item, error) {
	itemID = strings.TrimSpace(itemID)
	columnKey = strings.TrimSpace(columnKey)
	if itemID == "" {
		return domain.Item{}, fmt.Errorf("%w: item id is required", ErrValidation)
	}
	if columnKey == "" {
		return domain.Item{}, fmt.Errorf("%w: column key is required", ErrValidation)
	}
	if position < 0 {
		return domain.Item{}, fmt.Errorf("%w: position must be >= 0", ErrValidation)
	}
	item, err := s.gateway.MoveItem(ctx, itemID, columnKey, position)
	if err != nil {
		return domain.Item{}, fmt.Errorf("move item %q: %w", itemID, err)
	}
	return item, nil
}
