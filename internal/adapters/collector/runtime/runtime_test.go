package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vshulcz/Cubeship/internal/domain"
)

func waitForPolls(p *Collector, want int64, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if p.Polls() >= want {
			return true
		}
		time.Sleep(1 * time.Millisecond)
	}
	return false
}

func byName(gs []domain.Gauge) map[string]domain.Gauge {
	m := make(map[string]domain.Gauge, len(gs))
	for _, g := range gs {
		m[g.Role.Name] = g
	}
	return m
}

func fakeHost(c *Collector) {
	c.virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 1024, Free: 256}, nil
	}
	c.cpuPercent = func() ([]float64, error) { return []float64{12.5, 50}, nil }
}

func TestCollector_SetsRuntimeGauges(t *testing.T) {
	tests := []struct {
		name       string
		ticks      int64
		interval   time.Duration
		requireAll bool
	}{
		{"one_tick_minimal_keys", 1, 5 * time.Millisecond, false},
		{"two_ticks_all_keys", 2, 4 * time.Millisecond, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := New()
			fakeHost(p)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if err := p.Start(ctx, tc.interval); err != nil {
				t.Fatalf("Start error: %v", err)
			}
			if ok := waitForPolls(p, tc.ticks, 500*time.Millisecond); !ok {
				p.Stop()
				t.Fatalf("timeout waiting for %d polls", tc.ticks)
			}
			p.Stop()

			g := byName(p.Snapshot())
			for _, k := range []string{MAlloc, MHeapAlloc, MSys, MGoroutines} {
				if _, ok := g[k]; !ok {
					t.Fatalf("gauge %q not set", k)
				}
			}
			if g[MAlloc].Role.Unit != "bytes" || g[MNumGC].Role.Unit != "count" {
				t.Fatalf("unexpected units: %+v %+v", g[MAlloc].Role, g[MNumGC].Role)
			}
			if g[MGoroutines].Value < 1 {
				t.Fatalf("goroutines=%v", g[MGoroutines].Value)
			}

			if tc.requireAll {
				for _, mg := range memGauges {
					if _, ok := g[mg.role.Name]; !ok {
						t.Fatalf("expected gauge %q to be set", mg.role.Name)
					}
				}
			}
		})
	}
}

func TestCollector_StopsPolling(t *testing.T) {
	p := New()
	fakeHost(p)
	interval := 2 * time.Millisecond

	if err := p.Start(t.Context(), interval); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if !waitForPolls(p, 3, 500*time.Millisecond) {
		p.Stop()
		t.Fatal("timeout waiting for polls")
	}
	p.Stop()
	before := p.Polls()
	time.Sleep(5 * interval)
	if after := p.Polls(); after != before {
		t.Fatalf("polls grew after Stop(): before=%d after=%d", before, after)
	}

	p.Stop()
}

func TestCollector_StopsOnContextCancel(t *testing.T) {
	p := New()
	fakeHost(p)
	ctx, cancel := context.WithCancel(t.Context())
	if err := p.Start(ctx, time.Millisecond); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutines still running after cancel")
	}
}

func TestCollector_RejectsBadInterval(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		if err := New().Start(t.Context(), d); !errors.Is(err, errBadInterval) {
			t.Fatalf("interval %v: got %v", d, err)
		}
	}
}

func TestCollector_HostGaugesOrdered(t *testing.T) {
	p := New()
	fakeHost(p)
	p.pollRuntime()
	p.pollHost()

	got := p.Snapshot()
	if len(got) != len(memGauges)+5 {
		t.Fatalf("got %d gauges, want %d", len(got), len(memGauges)+5)
	}
	for i, mg := range memGauges {
		if got[i].Role.Name != mg.role.Name {
			t.Fatalf("gauge %d is %q, want %q", i, got[i].Role.Name, mg.role.Name)
		}
	}
	tail := got[len(memGauges):]
	want := []domain.Gauge{
		{Role: domain.Role{Name: MGoroutines, Unit: "count"}, Value: tail[0].Value},
		{Role: domain.Role{Name: TotalMemory, Unit: "bytes"}, Value: 1024},
		{Role: domain.Role{Name: FreeMemory, Unit: "bytes"}, Value: 256},
		{Role: domain.Role{Name: "CPUutilization1", Unit: "%"}, Value: 12.5},
		{Role: domain.Role{Name: "CPUutilization2", Unit: "%"}, Value: 50},
	}
	for i := range want {
		if tail[i] != want[i] {
			t.Fatalf("tail[%d]=%+v, want %+v", i, tail[i], want[i])
		}
	}
}

func TestCollector_HostErrorsKeepLastValues(t *testing.T) {
	p := New()
	fakeHost(p)
	p.pollHost()

	p.virtualMemory = func() (*mem.VirtualMemoryStat, error) { return nil, errors.New("boom") }
	p.cpuPercent = func() ([]float64, error) { return nil, errors.New("boom") }
	p.pollHost()

	g := byName(p.Snapshot())
	if g[TotalMemory].Value != 1024 || g[FreeMemory].Value != 256 {
		t.Fatalf("memory gauges lost: %+v", g)
	}
	if _, ok := g["CPUutilization2"]; !ok {
		t.Fatal("cpu gauges lost")
	}
}

func TestCollector_RealHostGauges(t *testing.T) {
	p := New()
	p.pollHost()

	for _, g := range p.Snapshot() {
		if strings.HasPrefix(g.Role.Name, CPUutilization) && (g.Value < 0 || g.Value > 100) {
			t.Fatalf("%s out of range [0,100]: %v", g.Role.Name, g.Value)
		}
	}
}
