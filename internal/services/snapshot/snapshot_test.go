package snapshot

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/vshulcz/Cubeship/internal/adapters/counter"
	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/encoder"
	"github.com/vshulcz/Cubeship/internal/ports"
	"github.com/vshulcz/Cubeship/internal/timefmt"
)

// fixedCounter answers every accessor from constants.
type fixedCounter struct {
	name string
	role domain.Role
}

func (f fixedCounter) Name() string        { return f.name }
func (f fixedCounter) Role() domain.Role   { return f.role }
func (fixedCounter) Concurrency() int      { return 3 }
func (fixedCounter) Mean() float64         { return 12.5 }
func (fixedCounter) Variance() float64     { return 2.1 }
func (fixedCounter) Hits() int64           { return 100 }
func (fixedCounter) Max() float64          { return 50.0 }
func (fixedCounter) Min() float64          { return 1.0 }
func (fixedCounter) Sum() float64          { return 1250.0 }
func (fixedCounter) SecondMoment() float64 { return 210.0 }

type wireEvent struct {
	Data map[string]any `json:"data"`
	Type string         `json:"type"`
	Time string         `json:"time"`
}

var epoch = func() time.Time { return time.UnixMilli(0) }

func newService() *Service {
	return New(encoder.New("node1", timefmt.NewPool(2)), WithClock(epoch))
}

func finalize(t *testing.T, b *encoder.Batch) (string, []wireEvent) {
	t.Helper()
	payload, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	var out []wireEvent
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", payload, err)
	}
	return string(payload), out
}

func TestCounters_Fixture(t *testing.T) {
	s := newService()
	b := s.Counters(context.Background(), []ports.Counter{
		fixedCounter{name: "requests", role: domain.Role{Name: "default", Unit: "ms"}},
	})

	raw, events := finalize(t, b)
	want := `[{"type":"counter","time":"1970-01-01T00:00:00Z","data":{"name":"requests","role":"default","unit":"ms",` +
		`"concurrency":3,"mean":12.5,"variance":2.1,"hits":100,"max":50,"min":1,"sum":1250,"m2":210,"marker":"node1"}}]`
	if raw != want {
		t.Fatalf("payload mismatch\n got: %s\nwant: %s", raw, want)
	}
	if len(events) != 1 || events[0].Type != "counter" {
		t.Fatalf("events=%+v", events)
	}
}

func TestCounters_OrderAndSharedTimestamp(t *testing.T) {
	reg := counter.NewRegistry()
	role := domain.Role{Name: "http", Unit: "ms"}
	for _, n := range []string{"z", "a", "m"} {
		reg.Get(n, role).Add(1)
	}

	calls := 0
	clock := func() time.Time {
		calls++
		return time.UnixMilli(int64(calls) * 60_000)
	}
	s := New(encoder.New("node1", nil), WithClock(clock))

	_, events := finalize(t, s.Counters(context.Background(), reg.Counters()))
	if calls != 1 {
		t.Fatalf("clock read %d times, want 1", calls)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events want 3", len(events))
	}
	for i, name := range []string{"z", "a", "m"} {
		if events[i].Data["name"] != name {
			t.Fatalf("event[%d] name=%v want %s", i, events[i].Data["name"], name)
		}
		if events[i].Time != "1970-01-01T00:01:00Z" {
			t.Fatalf("event[%d] time=%s", i, events[i].Time)
		}
	}
}

func TestCounters_UsesAtomicStatsWhenAvailable(t *testing.T) {
	c := counter.New("db", domain.Role{Name: "jdbc", Unit: "ms"})
	for _, v := range []float64{2, 4, 6} {
		c.Add(v)
	}
	_, events := finalize(t, newService().Counters(context.Background(), []ports.Counter{c}))
	d := events[0].Data
	if d["hits"] != 3.0 || d["sum"] != 12.0 || d["mean"] != 4.0 || d["m2"] != 8.0 || d["variance"] != 4.0 {
		t.Fatalf("data=%v", d)
	}
}

func TestCounters_EmptyInput(t *testing.T) {
	b := newService().Counters(context.Background(), nil)
	if !b.Empty() {
		t.Fatalf("expected empty batch, got %d events", b.Len())
	}
}

func TestGauge_ExactlyOneEvent(t *testing.T) {
	s := newService()
	tests := []struct {
		name  string
		ts    int64
		role  domain.Role
		value float64
	}{
		{"cpu", 0, domain.Role{Name: "cpu", Unit: "%"}, 42.5},
		{"zero", 1_700_000_000_000, domain.Role{Name: "heap", Unit: "bytes"}, 0},
		{"negative", 86_400_000, domain.Role{Name: "delta", Unit: "u"}, -3.25},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := s.Gauge(context.Background(), tc.ts, tc.role, tc.value)
			if b.Len() != 1 {
				t.Fatalf("Len=%d want 1", b.Len())
			}
			_, events := finalize(t, b)
			if len(events) != 1 {
				t.Fatalf("decoded %d events", len(events))
			}
			e := events[0]
			if e.Type != "gauge" || e.Data["value"] != tc.value || e.Data["role"] != tc.role.Name ||
				e.Data["unit"] != tc.role.Unit || e.Data["marker"] != "node1" {
				t.Fatalf("event=%+v", e)
			}
			if want := time.UnixMilli(tc.ts).UTC().Format(domain.TimeLayout); e.Time != want {
				t.Fatalf("time=%s want %s", e.Time, want)
			}
		})
	}
}

func TestStatus_OneEventPerResult(t *testing.T) {
	ns := domain.NodeStatus{Results: []domain.ValidationResult{
		{Name: "memory", Status: domain.StatusOK, Message: "used 40%"},
		{Name: "disk", Status: domain.StatusKO, Message: `path "/" full`},
	}}
	_, events := finalize(t, newService().Status(context.Background(), 0, ns))
	if len(events) != 2 {
		t.Fatalf("got %d events want 2", len(events))
	}
	for i, r := range ns.Results {
		d := events[i].Data
		if events[i].Type != "validation" || d["name"] != r.Name || d["status"] != string(r.Status) ||
			d["message"] != r.Message || d["marker"] != "node1" {
			t.Fatalf("event[%d]=%+v", i, events[i])
		}
	}
}

func TestStatus_NoResultsIsEmpty(t *testing.T) {
	if b := newService().Status(context.Background(), 0, domain.NodeStatus{}); !b.Empty() {
		t.Fatalf("expected empty batch, got %d", b.Len())
	}
}

func TestConcurrentSnapshots(t *testing.T) {
	s := New(encoder.New("node1", timefmt.NewPool(1)))
	reg := counter.NewRegistry()
	for _, n := range []string{"a", "b", "c", "d"} {
		reg.Get(n, domain.Role{Name: "r", Unit: "u"}).Add(1)
	}

	var wg sync.WaitGroup
	const workers = 24
	wg.Add(workers)
	for i := range workers {
		go func() {
			defer wg.Done()
			var b *encoder.Batch
			want := 1
			switch i % 3 {
			case 0:
				b, want = s.Counters(context.Background(), reg.Counters()), 4
			case 1:
				b = s.Gauge(context.Background(), s.Now(), domain.Role{Name: "g", Unit: "u"}, float64(i))
			default:
				b = s.Status(context.Background(), s.Now(), domain.NodeStatus{Results: []domain.ValidationResult{{Name: "x", Status: domain.StatusOK}}})
			}
			payload, err := b.Finalize()
			if err != nil {
				t.Errorf("Finalize: %v", err)
				return
			}
			var out []wireEvent
			if err := json.Unmarshal(payload, &out); err != nil || len(out) != want {
				t.Errorf("worker %d: %v, %d events want %d", i, err, len(out), want)
			}
		}()
	}
	wg.Wait()
}

func TestGauges_OneBatchInOrder(t *testing.T) {
	s := newService()
	gs := []domain.Gauge{
		{Role: domain.Role{Name: "Alloc", Unit: "bytes"}, Value: 1024},
		{Role: domain.Role{Name: "CPUutilization1", Unit: "%"}, Value: 12.5},
	}

	b := s.Gauges(t.Context(), 2000, gs)
	if b.Len() != len(gs) {
		t.Fatalf("Len=%d, want %d", b.Len(), len(gs))
	}
	_, events := finalize(t, b)
	for i, e := range events {
		if e.Type != "gauge" || e.Time != "1970-01-01T00:00:02Z" {
			t.Fatalf("event %d: %+v", i, e)
		}
		if e.Data["role"] != gs[i].Role.Name || e.Data["unit"] != gs[i].Role.Unit || e.Data["value"] != gs[i].Value {
			t.Fatalf("event %d data %v, want %+v", i, e.Data, gs[i])
		}
	}

	if !s.Gauges(t.Context(), 0, nil).Empty() {
		t.Fatal("no gauges must give an empty batch")
	}
}
