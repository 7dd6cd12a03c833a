package app

import (
	"context"
	"time"

	"github.com/evielund/sitboard/internal/domain"
)

// Gateway is the boundary to the persistence authority. Both the remote
// HTTP adapter and the local sqlite store satisfy it; the service never
// knows which one it is talking to.
type Gateway interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	ListColumns(ctx context.Context) ([]domain.Column, error)
	MoveItem(ctx context.Context, itemID, columnKey string, position int) (domain.Item, error)
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time
