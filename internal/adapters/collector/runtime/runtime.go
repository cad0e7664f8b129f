// Package runtime implements a gauge collector that samples Go runtime stats and host CPU/RAM usage.
package runtime

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/ports"
)

var errBadInterval = errors.New("poll interval must be positive")

var (
	goroutinesRole  = domain.Role{Name: MGoroutines, Unit: unitCount}
	totalMemoryRole = domain.Role{Name: TotalMemory, Unit: unitBytes}
	freeMemoryRole  = domain.Role{Name: FreeMemory, Unit: unitBytes}
)

// Collector periodically samples Go runtime stats plus host CPU/RAM gauges.
type Collector struct {
	st            *stats
	stop          chan struct{}
	virtualMemory func() (*mem.VirtualMemoryStat, error)
	cpuPercent    func() ([]float64, error)
	order         []string
	wg            sync.WaitGroup
	polls         atomic.Int64
	stopOnce      sync.Once
}

var _ ports.GaugeCollector = (*Collector)(nil)

// New creates a Collector with its own gauge storage.
func New() *Collector {
	order := make([]string, 0, len(memGauges)+3)
	for _, g := range memGauges {
		order = append(order, g.role.Name)
	}
	order = append(order, MGoroutines, TotalMemory, FreeMemory)

	return &Collector{
		st:            newStats(),
		stop:          make(chan struct{}),
		order:         order,
		virtualMemory: mem.VirtualMemory,
		cpuPercent:    func() ([]float64, error) { return cpu.Percent(0, true) },
	}
}

// Start launches background goroutines that sample runtime and host gauges at the given interval.
func (c *Collector) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errBadInterval
	}

	c.wg.Add(2)
	go c.loop(ctx, interval, c.pollRuntime)
	go c.loop(ctx, interval, c.pollHost)
	return nil
}

func (c *Collector) loop(ctx context.Context, interval time.Duration, poll func()) {
	defer c.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-t.C:
			poll()
		}
	}
}

func (c *Collector) pollRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	for _, g := range memGauges {
		c.st.Set(g.role, g.read(&ms))
	}
	c.st.Set(goroutinesRole, float64(runtime.NumGoroutine()))
	c.polls.Add(1)
}

func (c *Collector) pollHost() {
	if vm, err := c.virtualMemory(); err == nil && vm != nil {
		c.st.Set(totalMemoryRole, float64(vm.Total))
		c.st.Set(freeMemoryRole, float64(vm.Free))
	}
	if pct, err := c.cpuPercent(); err == nil {
		c.st.SetCPU(pct)
	}
}

// Stop signals every collector goroutine to halt and waits for them to finish.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}

// Snapshot returns the latest gauge values: runtime gauges first, then host memory and per-CPU usage.
func (c *Collector) Snapshot() []domain.Gauge {
	return c.st.Snapshot(c.order)
}

// Polls is the number of completed runtime samples.
func (c *Collector) Polls() int64 {
	return c.polls.Load()
}
