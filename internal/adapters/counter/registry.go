package counter

import (
	"sync"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/ports"
)

// Decorator wraps the observation path of a newly created counter.
// next records the value; a decorator may transform, filter or observe it.
type Decorator func(c *Counter, next func(float64)) func(float64)

type key struct {
	name string
	role domain.Role
}

// Registry owns counters keyed by name and role and lists them in creation order.
type Registry struct {
	mu         sync.RWMutex
	byKey      map[key]*Counter
	order      []*Counter
	decorators []Decorator
}

var _ ports.CounterSource = (*Registry)(nil)

// NewRegistry returns an empty registry. Decorators apply in order to every new counter:
// the first one sees the raw observation.
func NewRegistry(decorators ...Decorator) *Registry {
	return &Registry{
		byKey:      make(map[key]*Counter),
		decorators: append([]Decorator(nil), decorators...),
	}
}

// Get returns the counter for (name, role), creating it on first use.
func (r *Registry) Get(name string, role domain.Role) *Counter {
	k := key{name: name, role: role}

	r.mu.RLock()
	c, ok := r.byKey[k]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byKey[k]; ok {
		return c
	}
	c = New(name, role)
	for i := len(r.decorators) - 1; i >= 0; i-- {
		c.adder = r.decorators[i](c, c.adder)
	}
	r.byKey[k] = c
	r.order = append(r.order, c)
	return c
}

// Counters lists all counters in creation order.
func (r *Registry) Counters() []ports.Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.Counter, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, c)
	}
	return out
}

// Reset clears every counter's statistics.
func (r *Registry) Reset() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.order {
		c.Reset()
	}
}

// NonNegative drops negative observations.
func NonNegative(_ *Counter, next func(float64)) func(float64) {
	return func(v float64) {
		if v >= 0 {
			next(v)
		}
	}
}
