package ports

import (
	"context"

	"github.com/vshulcz/Cubeship/internal/domain"
)

// EventRepo stores events accepted by the collector.
type EventRepo interface {
	Append(ctx context.Context, events []domain.StoredEvent) error
	List(ctx context.Context, f domain.EventFilter) ([]domain.StoredEvent, error)
	Ping(ctx context.Context) error
}

// Persister saves and restores the in-memory event store.
type Persister interface {
	Save(ctx context.Context, events []domain.StoredEvent) error
	Restore(ctx context.Context, repo EventRepo) error
}
