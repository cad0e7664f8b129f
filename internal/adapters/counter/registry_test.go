package counter

import (
	"sync"
	"testing"

	"github.com/vshulcz/Cubeship/internal/domain"
)

func TestRegistry_GetReturnsSameCounter(t *testing.T) {
	r := NewRegistry()
	a := r.Get("req", httpRole)
	b := r.Get("req", httpRole)
	if a != b {
		t.Fatal("Get returned different counters for the same key")
	}
	other := r.Get("req", domain.Role{Name: "jdbc", Unit: "ms"})
	if other == a {
		t.Fatal("different roles must not share a counter")
	}
}

func TestRegistry_CountersInCreationOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		r.Get(n, httpRole)
	}
	r.Get("a", httpRole)

	got := r.Counters()
	if len(got) != len(names) {
		t.Fatalf("len=%d want %d", len(got), len(names))
	}
	for i, c := range got {
		if c.Name() != names[i] {
			t.Fatalf("Counters()[%d]=%s want %s", i, c.Name(), names[i])
		}
	}
}

func TestRegistry_DecoratorsApplyInOrder(t *testing.T) {
	var seen []float64
	record := func(_ *Counter, next func(float64)) func(float64) {
		return func(v float64) {
			seen = append(seen, v)
			next(v)
		}
	}
	double := func(_ *Counter, next func(float64)) func(float64) {
		return func(v float64) { next(v * 2) }
	}

	r := NewRegistry(NonNegative, record, double)
	c := r.Get("req", httpRole)
	c.Add(-5)
	c.Add(3)

	if len(seen) != 1 || seen[0] != 3 {
		t.Fatalf("record saw %v, want [3] (NonNegative runs first)", seen)
	}
	if c.Sum() != 6 || c.Hits() != 1 {
		t.Fatalf("stats=%+v, want doubled single observation", c.Stats())
	}
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()
	r.Get("a", httpRole).Add(1)
	r.Get("b", httpRole).Add(2)
	r.Reset()
	for _, c := range r.Counters() {
		if c.Hits() != 0 {
			t.Fatalf("%s not reset", c.Name())
		}
	}
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	wg.Add(32)
	for range 32 {
		go func() {
			defer wg.Done()
			r.Get("shared", httpRole).Add(1)
		}()
	}
	wg.Wait()
	if n := len(r.Counters()); n != 1 {
		t.Fatalf("created %d counters, want 1", n)
	}
	if h := r.Get("shared", httpRole).Hits(); h != 32 {
		t.Fatalf("hits=%d want 32", h)
	}
}
