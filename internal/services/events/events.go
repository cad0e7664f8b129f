// Package events implements the collector use cases: ingesting event batches, listing them
// and aggregating counters across nodes.
package events

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/ports"
)

type Service struct {
	repo     ports.EventRepo
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// Ingested describes one stored batch.
type Ingested struct {
	Markers  []string
	Accepted int
}

// Notifier is told about every stored batch. A failed notification does not fail the ingest.
type Notifier interface {
	Publish(ctx context.Context, evt Ingested) error
}

// Option customizes a Service.
type Option func(*Service)

// WithClock sets the clock used to stamp received events.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs sets the event id generator.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithNotifier registers n to run after every successful ingest.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger used for failed notifications.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(repo ports.EventRepo, opts ...Option) *Service {
	s := &Service{repo: repo, logger: zap.NewNop(), now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Ingest validates and stores a batch. Either every event is stored or none is.
func (s *Service) Ingest(ctx context.Context, batch []domain.Event) (int, error) {
	if len(batch) == 0 {
		return 0, domain.ErrEmptyBatch
	}
	received := s.now().UTC()
	stored := make([]domain.StoredEvent, 0, len(batch))
	for i, e := range batch {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("event %d: %w", i, err)
		}
		stored = append(stored, domain.StoredEvent{ID: s.newID(), ReceivedAt: received, Event: e})
	}
	if err := s.repo.Append(ctx, stored); err != nil {
		return 0, err
	}
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, Ingested{Accepted: len(stored), Markers: markersOf(batch)}); err != nil {
			s.logger.Warn("ingest notification failed", zap.Error(err))
		}
	}
	return len(stored), nil
}

// markersOf lists the distinct reporting nodes of a batch in order of appearance.
func markersOf(batch []domain.Event) []string {
	var out []string
	for _, e := range batch {
		if m := e.Marker(); !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

func (s *Service) List(ctx context.Context, f domain.EventFilter) ([]domain.StoredEvent, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidEvent, f.Type)
	}
	return s.repo.List(ctx, f)
}

// AggregateCounter merges the latest counter event of each marker for name, optionally
// restricted to role. It returns domain.ErrNotFound when no node reported that counter.
func (s *Service) AggregateCounter(ctx context.Context, name, role string) (domain.CounterAggregate, error) {
	name, role = strings.TrimSpace(name), strings.TrimSpace(role)
	if name == "" {
		return domain.CounterAggregate{}, domain.ErrNotFound
	}
	evs, err := s.repo.List(ctx, domain.EventFilter{Type: domain.CounterEvent})
	if err != nil {
		return domain.CounterAggregate{}, err
	}

	type latest struct {
		role, unit string
		stats      domain.CounterStats
	}
	byMarker := make(map[string]latest)
	for _, e := range evs {
		if e.StringField("name") != name {
			continue
		}
		if role != "" && e.StringField("role") != role {
			continue
		}
		byMarker[e.Marker()] = latest{
			role:  e.StringField("role"),
			unit:  e.StringField("unit"),
			stats: statsOf(e.Event),
		}
	}
	if len(byMarker) == 0 {
		return domain.CounterAggregate{}, domain.ErrNotFound
	}

	markers := make([]string, 0, len(byMarker))
	for m := range byMarker {
		markers = append(markers, m)
	}
	slices.Sort(markers)

	agg := domain.CounterAggregate{Name: name, Role: role, Markers: markers}
	for _, m := range markers {
		l := byMarker[m]
		agg.CounterStats = domain.MergeCounterStats(agg.CounterStats, l.stats)
		if agg.Role == "" {
			agg.Role = l.role
		}
		if agg.Unit == "" {
			agg.Unit = l.unit
		}
	}
	return agg, nil
}

// statsOf reads counter statistics from event data. Null statistics of an empty counter read as zero.
func statsOf(e domain.Event) domain.CounterStats {
	num := func(key string) float64 {
		v, _ := e.NumberField(key)
		return v
	}
	st := domain.CounterStats{
		Hits:        int64(num("hits")),
		Concurrency: int(num("concurrency")),
		Sum:         num("sum"),
		Mean:        num("mean"),
		Variance:    num("variance"),
		Min:         num("min"),
		Max:         num("max"),
		M2:          num("m2"),
	}
	if st.Hits <= 0 {
		return domain.CounterStats{Concurrency: st.Concurrency}
	}
	return st
}
