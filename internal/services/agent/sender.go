package agent

import (
	"context"
	"sync"
	"time"

	"github.com/vshulcz/Cubeship/internal/encoder"
	"github.com/vshulcz/Cubeship/internal/ports"
)

// Recorder observes post latencies in milliseconds and the number of posts in flight.
type Recorder interface {
	Add(v float64)
	Enter() (leave func())
}

// BatchPublisher posts submitted batches from a fixed number of workers.
type BatchPublisher struct {
	pub     ports.Publisher
	latency Recorder
	jobs    chan *encoder.Batch
	wg      sync.WaitGroup
	workers int
}

// NewBatchPublisher bounds concurrent posts by workers. latency may be nil.
func NewBatchPublisher(pub ports.Publisher, workers int, latency Recorder) *BatchPublisher {
	if workers < 1 {
		workers = 1
	}
	return &BatchPublisher{
		pub:     pub,
		latency: latency,
		workers: workers,
		jobs:    make(chan *encoder.Batch, workers*2),
	}
}

func (bp *BatchPublisher) Start(ctx context.Context) {
	for range bp.workers {
		bp.wg.Add(1)
		go func() {
			defer bp.wg.Done()
			for b := range bp.jobs {
				bp.post(ctx, b)
			}
		}()
	}
}

func (bp *BatchPublisher) post(ctx context.Context, b *encoder.Batch) {
	if bp.latency == nil {
		bp.pub.Post(ctx, b)
		return
	}
	leave := bp.latency.Enter()
	start := time.Now()
	bp.pub.Post(ctx, b)
	bp.latency.Add(float64(time.Since(start).Microseconds()) / 1000)
	leave()
}

// Stop drains queued batches and waits for the workers.
func (bp *BatchPublisher) Stop() {
	close(bp.jobs)
	bp.wg.Wait()
}

// Submit queues b. Empty batches are skipped; it reports false when ctx ends first.
func (bp *BatchPublisher) Submit(ctx context.Context, b *encoder.Batch) bool {
	if b.Empty() {
		return false
	}
	select {
	case bp.jobs <- b:
		return true
	case <-ctx.Done():
		return false
	}
}
