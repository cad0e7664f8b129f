// Package encoder builds the JSON event envelope shipped to the collector:
//
//	[{"type":"gauge","time":"2024-01-01T00:00:00Z","data":{"value":1.5,"role":"cpu","unit":"%","marker":"node1"}}, ...]
package encoder

import (
	"context"
	"sync"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/timefmt"
)

// Encoder renders events stamped with the node marker.
type Encoder struct {
	times  *timefmt.Pool
	marker string
}

var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 512)
		return &b
	},
}

// New returns an Encoder that stamps every event with marker. A nil pool gets a default-sized one.
func New(marker string, times *timefmt.Pool) *Encoder {
	if times == nil {
		times = timefmt.NewPool(0)
	}
	return &Encoder{marker: marker, times: times}
}

// Marker is the node tag injected into every event.
func (e *Encoder) Marker() string {
	return e.marker
}

// BuildEvent appends one event to b. The marker field is injected, replacing any marker
// supplied by the caller. It fails only when b was already finalized.
func (e *Encoder) BuildEvent(ctx context.Context, b *Batch, typ domain.EventType, timeMillis int64, fields ...Field) error {
	if b.Finalized() {
		return domain.ErrBatchFinalized
	}

	sp := scratchPool.Get().(*[]byte)
	buf := (*sp)[:0]
	defer func() {
		*sp = buf[:0]
		scratchPool.Put(sp)
	}()

	buf = append(buf, `{"type":`...)
	buf = appendString(buf, string(typ))
	buf = append(buf, `,"time":"`...)
	buf = append(buf, e.times.Format(ctx, timeMillis)...)
	buf = append(buf, `","data":{`...)

	marker := String(domain.MarkerKey, e.marker)
	injected := false
	for i, f := range fields {
		if f.Key == domain.MarkerKey {
			if injected {
				continue
			}
			f = marker
			injected = true
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = f.appendJSON(buf)
	}
	if !injected {
		if len(fields) > 0 {
			buf = append(buf, ',')
		}
		buf = marker.appendJSON(buf)
	}
	buf = append(buf, "}}"...)

	return b.append(buf)
}
