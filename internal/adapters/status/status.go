// Package status evaluates node health validations reported as validation events.
package status

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/ports"
)

// Validation is one named health check.
type Validation interface {
	Name() string
	Validate(ctx context.Context) (domain.Status, string)
}

// Checker runs validations in registration order.
type Checker struct {
	validations []Validation
}

var _ ports.StatusSource = (*Checker)(nil)

// NewChecker returns a checker over vs; nil entries are skipped.
func NewChecker(vs ...Validation) *Checker {
	c := &Checker{validations: make([]Validation, 0, len(vs))}
	for _, v := range vs {
		if v != nil {
			c.validations = append(c.validations, v)
		}
	}
	return c
}

// Status runs every validation. A panicking validation yields UNKNOWN and the rest still run.
func (c *Checker) Status(ctx context.Context) domain.NodeStatus {
	ns := domain.NodeStatus{Results: make([]domain.ValidationResult, 0, len(c.validations))}
	for _, v := range c.validations {
		ns.Results = append(ns.Results, run(ctx, v))
	}
	return ns
}

func run(ctx context.Context, v Validation) (res domain.ValidationResult) {
	res.Name = v.Name()
	defer func() {
		if r := recover(); r != nil {
			res.Status = domain.StatusUnknown
			res.Message = fmt.Sprintf("validation panicked: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		res.Status, res.Message = domain.StatusUnknown, err.Error()
		return res
	}
	res.Status, res.Message = v.Validate(ctx)
	if res.Status == "" {
		res.Status = domain.StatusUnknown
	}
	return res
}

type funcValidation struct {
	fn   func(ctx context.Context) (domain.Status, string)
	name string
}

// FuncValidation adapts fn into a Validation.
func FuncValidation(name string, fn func(ctx context.Context) (domain.Status, string)) Validation {
	return funcValidation{name: name, fn: fn}
}

func (f funcValidation) Name() string { return f.name }

func (f funcValidation) Validate(ctx context.Context) (domain.Status, string) {
	return f.fn(ctx)
}

// MemoryValidation reports DEGRADED when host memory usage exceeds threshold percent
// and KO above the midpoint between threshold and 100.
func MemoryValidation(threshold float64) Validation {
	return memoryValidation{threshold: threshold, read: mem.VirtualMemoryWithContext}
}

type memoryValidation struct {
	read      func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	threshold float64
}

func (memoryValidation) Name() string { return "memory" }

func (m memoryValidation) Validate(ctx context.Context) (domain.Status, string) {
	vm, err := m.read(ctx)
	if err != nil || vm == nil {
		return domain.StatusUnknown, fmt.Sprintf("can't read memory stats: %v", err)
	}
	used := vm.UsedPercent
	msg := fmt.Sprintf("memory used %.1f%% (threshold %.1f%%)", used, m.threshold)
	switch {
	case used > m.threshold+(100-m.threshold)/2:
		return domain.StatusKO, msg
	case used > m.threshold:
		return domain.StatusDegraded, msg
	default:
		return domain.StatusOK, msg
	}
}

// GoroutineValidation reports DEGRADED when the process runs more than limit goroutines.
func GoroutineValidation(limit int) Validation {
	return goroutineValidation{limit: limit, count: runtime.NumGoroutine}
}

type goroutineValidation struct {
	count func() int
	limit int
}

func (goroutineValidation) Name() string { return "goroutines" }

func (g goroutineValidation) Validate(context.Context) (domain.Status, string) {
	n := g.count()
	msg := fmt.Sprintf("%d goroutines (limit %d)", n, g.limit)
	if n > g.limit {
		return domain.StatusDegraded, msg
	}
	return domain.StatusOK, msg
}
