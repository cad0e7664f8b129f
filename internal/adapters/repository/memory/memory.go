// Package memory implements an in-memory event repository.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/ports"
)

// Repo keeps events in arrival order with coarse-grained RW locking.
type Repo struct {
	events []domain.StoredEvent
	mu     sync.RWMutex
}

var _ ports.EventRepo = (*Repo)(nil)

// New returns an empty in-memory repository.
func New() *Repo {
	return &Repo{}
}

// Append stores events after the existing ones.
func (r *Repo) Append(_ context.Context, events []domain.StoredEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// List returns matching events oldest first. A positive limit keeps only the newest ones.
func (r *Repo) List(_ context.Context, f domain.EventFilter) ([]domain.StoredEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.StoredEvent, 0)
	for i := len(r.events) - 1; i >= 0; i-- {
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
		if f.Match(r.events[i].Event) {
			out = append(out, r.events[i])
		}
	}
	slices.Reverse(out)
	return out, nil
}

// Len is the number of stored events.
func (r *Repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

// Ping always succeeds for the in-memory store.
func (*Repo) Ping(context.Context) error {
	return nil
}
