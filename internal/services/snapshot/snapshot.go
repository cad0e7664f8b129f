// Package snapshot turns counters, gauges and node validations into encoded event batches.
package snapshot

import (
	"context"
	"time"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/encoder"
	"github.com/vshulcz/Cubeship/internal/ports"
)

// Service builds one fresh batch per call. It keeps no state between calls and is safe for
// concurrent use.
type Service struct {
	enc *encoder.Encoder
	now func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used to stamp counter snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a snapshot service using enc for every event.
func New(enc *encoder.Encoder, opts ...Option) *Service {
	s := &Service{enc: enc, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now returns the current time in epoch milliseconds according to the service clock.
func (s *Service) Now() int64 {
	return s.now().UnixMilli()
}

// Counters emits one counter event per input counter, in input order, all stamped with a
// single clock reading.
func (s *Service) Counters(ctx context.Context, counters []ports.Counter) *encoder.Batch {
	ts := s.Now()
	b := encoder.NewBatch()
	for _, c := range counters {
		s.build(ctx, b, domain.CounterEvent, ts, counterFields(c)...)
	}
	return b
}

// Gauge emits exactly one gauge event.
func (s *Service) Gauge(ctx context.Context, timeMillis int64, role domain.Role, value float64) *encoder.Batch {
	b := encoder.NewBatch()
	s.build(ctx, b, domain.GaugeEvent, timeMillis, gaugeFields(role, value)...)
	return b
}

// Gauges emits one gauge event per sample into a single batch, in input order.
func (s *Service) Gauges(ctx context.Context, timeMillis int64, gauges []domain.Gauge) *encoder.Batch {
	b := encoder.NewBatch()
	for _, g := range gauges {
		s.build(ctx, b, domain.GaugeEvent, timeMillis, gaugeFields(g.Role, g.Value)...)
	}
	return b
}

// Status emits one validation event per result, in result order.
func (s *Service) Status(ctx context.Context, timeMillis int64, ns domain.NodeStatus) *encoder.Batch {
	b := encoder.NewBatch()
	for _, r := range ns.Results {
		s.build(ctx, b, domain.ValidationEvent, timeMillis,
			encoder.String("message", r.Message),
			encoder.String("status", string(r.Status)),
			encoder.String("name", r.Name),
		)
	}
	return b
}

// build appends to a batch created by this service, which cannot be finalized yet.
func (s *Service) build(ctx context.Context, b *encoder.Batch, typ domain.EventType, ts int64, fields ...encoder.Field) {
	_ = s.enc.BuildEvent(ctx, b, typ, ts, fields...)
}

func gaugeFields(role domain.Role, value float64) []encoder.Field {
	return []encoder.Field{
		encoder.Float("value", value),
		encoder.String("role", role.Name),
		encoder.String("unit", role.Unit),
	}
}

func counterFields(c ports.Counter) []encoder.Field {
	var st domain.CounterStats
	if ss, ok := c.(ports.StatsSnapshotter); ok {
		st = ss.Stats()
	} else {
		st = domain.CounterStats{
			Concurrency: c.Concurrency(),
			Mean:        c.Mean(),
			Variance:    c.Variance(),
			Hits:        c.Hits(),
			Max:         c.Max(),
			Min:         c.Min(),
			Sum:         c.Sum(),
			M2:          c.SecondMoment(),
		}
	}
	role := c.Role()
	return []encoder.Field{
		encoder.String("name", c.Name()),
		encoder.String("role", role.Name),
		encoder.String("unit", role.Unit),
		encoder.Int("concurrency", st.Concurrency),
		encoder.Float("mean", st.Mean),
		encoder.Float("variance", st.Variance),
		encoder.Int64("hits", st.Hits),
		encoder.Float("max", st.Max),
		encoder.Float("min", st.Min),
		encoder.Float("sum", st.Sum),
		encoder.Float("m2", st.M2),
	}
}
