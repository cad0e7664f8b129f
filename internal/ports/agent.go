package ports

import (
	"context"
	"time"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/encoder"
)

// Counter is the read-only view of a statistics counter consumed by the counter snapshot.
// Accessors read the current state independently of each other.
type Counter interface {
	Name() string
	Role() domain.Role
	Concurrency() int
	Mean() float64
	Variance() float64
	Hits() int64
	Max() float64
	Min() float64
	Sum() float64
	SecondMoment() float64
}

// StatsSnapshotter is implemented by counters able to read all statistics at once.
type StatsSnapshotter interface {
	Stats() domain.CounterStats
}

// CounterSource lists the counters to report, in a stable order.
type CounterSource interface {
	Counters() []Counter
}

// GaugeCollector samples gauges in the background.
type GaugeCollector interface {
	Start(ctx context.Context, interval time.Duration) error
	Stop()
	Snapshot() []domain.Gauge
}

// StatusSource evaluates the node validations.
type StatusSource interface {
	Status(ctx context.Context) domain.NodeStatus
}

// Publisher delivers a batch to the collector. Delivery is best effort and never fails the caller.
type Publisher interface {
	Post(ctx context.Context, b *encoder.Batch)
}
