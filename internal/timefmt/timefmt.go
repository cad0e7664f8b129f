// Package timefmt renders epoch milliseconds as ISO-8601 UTC timestamps through a bounded
// pool of reusable formatters.
package timefmt

import (
	"context"
	"runtime"
	"time"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/misc"
)

// Formatter renders timestamps into an internal scratch buffer.
// A Formatter is not safe for concurrent use.
type Formatter struct {
	buf []byte
}

// NewFormatter returns a standalone formatter.
func NewFormatter() *Formatter {
	return &Formatter{buf: make([]byte, 0, len(domain.TimeLayout))}
}

// Format renders ms (milliseconds since the Unix epoch) as YYYY-MM-DDThh:mm:ssZ in UTC.
func (f *Formatter) Format(ms int64) string {
	f.buf = time.UnixMilli(ms).UTC().AppendFormat(f.buf[:0], domain.TimeLayout)
	return string(f.buf)
}

// Pool hands out formatters so that no two goroutines ever share one.
type Pool struct {
	formatters *misc.BoundedPool[*Formatter]
}

// DefaultSize is twice the number of logical CPUs.
func DefaultSize() int {
	return 2 * runtime.NumCPU()
}

// NewPool pre-populates size formatters; size <= 0 selects DefaultSize.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultSize()
	}
	return &Pool{formatters: misc.NewBoundedPool(size, NewFormatter)}
}

// Acquire blocks until a formatter is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Formatter, error) {
	return p.formatters.Acquire(ctx)
}

// Release returns a formatter obtained from Acquire.
func (p *Pool) Release(f *Formatter) {
	p.formatters.Release(f)
}

// Size is the fixed number of pooled formatters.
func (p *Pool) Size() int {
	return p.formatters.Cap()
}

// Format renders ms with a pooled formatter. When ctx ends before one is free a throwaway
// formatter is used instead, so Format never fails and never deadlocks.
func (p *Pool) Format(ctx context.Context, ms int64) string {
	var out string
	if err := p.formatters.Do(ctx, func(f *Formatter) { out = f.Format(ms) }); err != nil {
		return NewFormatter().Format(ms)
	}
	return out
}
