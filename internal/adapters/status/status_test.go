package status

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vshulcz/Cubeship/internal/domain"
)

func fixed(name string, st domain.Status) Validation {
	return FuncValidation(name, func(context.Context) (domain.Status, string) {
		return st, name + " is " + string(st)
	})
}

func TestChecker_Status(t *testing.T) {
	tests := []struct {
		name  string
		want  domain.Status
		vs    []Validation
		names []string
	}{
		{name: "no validations", want: domain.StatusOK},
		{
			name:  "all ok",
			vs:    []Validation{fixed("a", domain.StatusOK), fixed("b", domain.StatusOK)},
			want:  domain.StatusOK,
			names: []string{"a", "b"},
		},
		{
			name:  "worst wins",
			vs:    []Validation{fixed("a", domain.StatusDegraded), fixed("b", domain.StatusKO), fixed("c", domain.StatusOK)},
			want:  domain.StatusKO,
			names: []string{"a", "b", "c"},
		},
		{
			name:  "unknown above degraded",
			vs:    []Validation{fixed("a", domain.StatusDegraded), nil, fixed("b", domain.StatusUnknown)},
			want:  domain.StatusUnknown,
			names: []string{"a", "b"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ns := NewChecker(tc.vs...).Status(t.Context())
			if got := ns.Status(); got != tc.want {
				t.Fatalf("status=%s, want %s", got, tc.want)
			}
			if len(ns.Results) != len(tc.names) {
				t.Fatalf("got %d results, want %d", len(ns.Results), len(tc.names))
			}
			for i, n := range tc.names {
				if ns.Results[i].Name != n {
					t.Fatalf("result %d is %q, want %q", i, ns.Results[i].Name, n)
				}
			}
		})
	}
}

func TestChecker_PanicAndEmptyStatus(t *testing.T) {
	c := NewChecker(
		FuncValidation("boom", func(context.Context) (domain.Status, string) { panic("kaput") }),
		FuncValidation("blank", func(context.Context) (domain.Status, string) { return "", "" }),
		fixed("after", domain.StatusOK),
	)
	ns := c.Status(t.Context())
	if len(ns.Results) != 3 {
		t.Fatalf("got %d results", len(ns.Results))
	}
	if r := ns.Results[0]; r.Status != domain.StatusUnknown || !strings.Contains(r.Message, "kaput") {
		t.Fatalf("unexpected panic result %+v", r)
	}
	if ns.Results[1].Status != domain.StatusUnknown {
		t.Fatalf("blank status should become UNKNOWN, got %q", ns.Results[1].Status)
	}
	if ns.Results[2].Status != domain.StatusOK {
		t.Fatal("later validations must still run")
	}
}

func TestChecker_CanceledContext(t *testing.T) {
	called := false
	c := NewChecker(FuncValidation("x", func(context.Context) (domain.Status, string) {
		called = true
		return domain.StatusOK, ""
	}))
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	ns := c.Status(ctx)
	if called {
		t.Fatal("validation ran on canceled context")
	}
	if ns.Results[0].Status != domain.StatusUnknown {
		t.Fatalf("got %s", ns.Results[0].Status)
	}
}

func TestMemoryValidation(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want domain.Status
		used float64
	}{
		{name: "below", used: 40, want: domain.StatusOK},
		{name: "at threshold", used: 80, want: domain.StatusOK},
		{name: "degraded", used: 85, want: domain.StatusDegraded},
		{name: "ko", used: 95, want: domain.StatusKO},
		{name: "read error", err: errors.New("no proc"), want: domain.StatusUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := memoryValidation{threshold: 80, read: func(context.Context) (*mem.VirtualMemoryStat, error) {
				if tc.err != nil {
					return nil, tc.err
				}
				return &mem.VirtualMemoryStat{UsedPercent: tc.used}, nil
			}}
			if got, msg := v.Validate(t.Context()); got != tc.want {
				t.Fatalf("status=%s (%s), want %s", got, msg, tc.want)
			}
		})
	}

	if MemoryValidation(90).Name() != "memory" {
		t.Fatal("unexpected name")
	}
}

func TestGoroutineValidation(t *testing.T) {
	v := goroutineValidation{limit: 10, count: func() int { return 11 }}
	if st, _ := v.Validate(t.Context()); st != domain.StatusDegraded {
		t.Fatalf("got %s", st)
	}
	v.count = func() int { return 10 }
	if st, _ := v.Validate(t.Context()); st != domain.StatusOK {
		t.Fatalf("got %s", st)
	}

	live := GoroutineValidation(1 << 20)
	if st, msg := live.Validate(t.Context()); st != domain.StatusOK || msg == "" {
		t.Fatalf("got %s %q", st, msg)
	}
}
