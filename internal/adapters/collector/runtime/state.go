package runtime

import (
	"fmt"
	"sync"

	"github.com/vshulcz/Cubeship/internal/domain"
)

type stats struct {
	values map[string]domain.Gauge
	cpu    []float64
	mu     sync.RWMutex
}

func newStats() *stats {
	return &stats{values: make(map[string]domain.Gauge)}
}

func (s *stats) Set(role domain.Role, v float64) {
	s.mu.Lock()
	s.values[role.Name] = domain.Gauge{Role: role, Value: v}
	s.mu.Unlock()
}

func (s *stats) SetCPU(pct []float64) {
	s.mu.Lock()
	s.cpu = append(s.cpu[:0], pct...)
	s.mu.Unlock()
}

// Snapshot lists the sampled gauges in order; names never sampled are skipped.
func (s *stats) Snapshot(order []string) []domain.Gauge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Gauge, 0, len(s.values)+len(s.cpu))
	for _, name := range order {
		if g, ok := s.values[name]; ok {
			out = append(out, g)
		}
	}
	for i, p := range s.cpu {
		out = append(out, domain.Gauge{
			Role:  domain.Role{Name: fmt.Sprintf("%s%d", CPUutilization, i+1), Unit: unitPercent},
			Value: p,
		})
	}
	return out
}
