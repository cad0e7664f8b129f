package encoder

import (
	"bytes"

	"github.com/vshulcz/Cubeship/internal/domain"
)

// Batch accumulates encoded events for one request body.
// A Batch belongs to a single goroutine from creation to flush and is finalized at most once.
type Batch struct {
	buf       bytes.Buffer
	events    int
	finalized bool
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Len is the number of events in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return b.events
}

// Empty reports whether the batch holds no events.
func (b *Batch) Empty() bool {
	return b.Len() == 0
}

// Size is the encoded size in bytes of the events, without array brackets.
func (b *Batch) Size() int {
	if b == nil {
		return 0
	}
	return b.buf.Len()
}

// Finalized reports whether Finalize already succeeded.
func (b *Batch) Finalized() bool {
	return b != nil && b.finalized
}

// Finalize returns the events as a JSON array. It fails with domain.ErrEmptyBatch when there is
// nothing to send and with domain.ErrBatchFinalized on a second call.
func (b *Batch) Finalize() ([]byte, error) {
	if b.Finalized() {
		return nil, domain.ErrBatchFinalized
	}
	if b.Empty() {
		return nil, domain.ErrEmptyBatch
	}
	out := make([]byte, 0, b.buf.Len()+2)
	out = append(out, '[')
	out = append(out, b.buf.Bytes()...)
	out = append(out, ']')
	b.finalized = true
	b.buf.Reset()
	return out, nil
}

func (b *Batch) append(event []byte) error {
	if b.finalized {
		return domain.ErrBatchFinalized
	}
	if b.events > 0 {
		b.buf.WriteByte(',')
	}
	b.buf.Write(event)
	b.events++
	return nil
}
