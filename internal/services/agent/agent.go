// Package agent implements the reporting agent: it snapshots counters, gauges and node
// status every report interval and ships them to the collector.
package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/Cubeship/internal/config"
	"github.com/vshulcz/Cubeship/internal/encoder"
	"github.com/vshulcz/Cubeship/internal/ports"
	"github.com/vshulcz/Cubeship/internal/services/snapshot"
)

// Sources are the producers of reported events. Any of them may be nil.
type Sources struct {
	Gauges   ports.GaugeCollector
	Counters ports.CounterSource
	Status   ports.StatusSource
}

// Service periodically snapshots its sources and ships the batches.
type Service struct {
	src     Sources
	snap    *snapshot.Service
	pub     ports.Publisher
	latency Recorder
	logger  *zap.Logger
	sender  *BatchPublisher
	cfg     config.AgentConfig
}

// Option customizes a Service.
type Option func(*Service)

// WithPostLatency records every post duration into r.
func WithPostLatency(r Recorder) Option {
	return func(s *Service) { s.latency = r }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New wires together the agent configuration, sources, snapshot service and publisher.
func New(cfg config.AgentConfig, snap *snapshot.Service, src Sources, pub ports.Publisher, opts ...Option) *Service {
	s := &Service{cfg: cfg, snap: snap, src: src, pub: pub, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run starts sampling, enqueues reports, and blocks until ctx is done.
func (r *Service) Run(ctx context.Context) error {
	if r.src.Gauges != nil {
		if err := r.src.Gauges.Start(ctx, r.cfg.PollInterval); err != nil {
			return err
		}
		defer r.src.Gauges.Stop()
	}

	r.sender = NewBatchPublisher(r.pub, r.cfg.RateLimit, r.latency)
	r.sender.Start(ctx)
	defer r.sender.Stop()

	ticker := time.NewTicker(r.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.enqueueSnapshot(ctx)
		}
	}
}

func (r *Service) enqueueSnapshot(ctx context.Context) {
	batches := r.collect(ctx)
	events := 0
	for _, b := range batches {
		if r.sender.Submit(ctx, b) {
			events += b.Len()
		}
	}
	r.logger.Debug("report queued", zap.Int("batches", len(batches)), zap.Int("events", events))
}

// collect builds the non-empty batches of one report: counters, gauges, then status.
func (r *Service) collect(ctx context.Context) []*encoder.Batch {
	out := make([]*encoder.Batch, 0, 3)
	add := func(b *encoder.Batch) {
		if !b.Empty() {
			out = append(out, b)
		}
	}

	if r.src.Counters != nil {
		if cs := r.src.Counters.Counters(); len(cs) > 0 {
			add(r.snap.Counters(ctx, cs))
		}
	}
	now := r.snap.Now()
	if r.src.Gauges != nil {
		add(r.snap.Gauges(ctx, now, r.src.Gauges.Snapshot()))
	}
	if r.src.Status != nil {
		add(r.snap.Status(ctx, now, r.src.Status.Status(ctx)))
	}
	return out
}
