// Package counter is an in-process statistics engine: thread-safe counters accumulating
// hits, sum, min, max, mean and the second moment with Welford's online algorithm.
package counter

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/ports"
)

// Counter accumulates observations for one (name, role) key.
type Counter struct {
	role        domain.Role
	name        string
	concurrency atomic.Int64

	mu    sync.Mutex
	hits  int64
	sum   float64
	mean  float64
	m2    float64
	min   float64
	max   float64
	adder func(float64)
}

var (
	_ ports.Counter          = (*Counter)(nil)
	_ ports.StatsSnapshotter = (*Counter)(nil)
)

// New returns an empty counter.
func New(name string, role domain.Role) *Counter {
	c := &Counter{name: name, role: role}
	c.adder = c.add
	return c
}

// Add records one observation.
func (c *Counter) Add(v float64) {
	c.adder(v)
}

func (c *Counter) add(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits++
	c.sum += v
	if c.hits == 1 {
		c.min, c.max = v, v
	} else {
		c.min = math.Min(c.min, v)
		c.max = math.Max(c.max, v)
	}
	delta := v - c.mean
	c.mean += delta / float64(c.hits)
	c.m2 += delta * (v - c.mean)
}

// Enter marks the start of a measured section; call the returned func to leave it.
func (c *Counter) Enter() (leave func()) {
	c.concurrency.Add(1)
	var once sync.Once
	return func() { once.Do(func() { c.concurrency.Add(-1) }) }
}

// Reset clears the statistics but keeps the concurrency gauge.
func (c *Counter) Reset() {
	c.mu.Lock()
	c.hits, c.sum, c.mean, c.m2, c.min, c.max = 0, 0, 0, 0, 0, 0
	c.mu.Unlock()
}

func (c *Counter) Name() string      { return c.name }
func (c *Counter) Role() domain.Role { return c.role }
func (c *Counter) Concurrency() int  { return int(c.concurrency.Load()) }

// Stats reads every statistic under one lock.
func (c *Counter) Stats() domain.CounterStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := domain.CounterStats{
		Hits:        c.hits,
		Concurrency: c.Concurrency(),
		Sum:         c.sum,
		Mean:        c.mean,
		Min:         c.min,
		Max:         c.max,
		M2:          c.m2,
	}
	if c.hits == 0 {
		s.Mean, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN()
	}
	if c.hits > 1 {
		s.Variance = c.m2 / float64(c.hits-1)
	}
	return s
}

func (c *Counter) Mean() float64         { return c.Stats().Mean }
func (c *Counter) Variance() float64     { return c.Stats().Variance }
func (c *Counter) Hits() int64           { return c.Stats().Hits }
func (c *Counter) Max() float64          { return c.Stats().Max }
func (c *Counter) Min() float64          { return c.Stats().Min }
func (c *Counter) Sum() float64          { return c.Stats().Sum }
func (c *Counter) SecondMoment() float64 { return c.Stats().M2 }
