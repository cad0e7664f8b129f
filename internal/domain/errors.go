package domain

import "errors"

var (
	// ErrNotFound is returned when the requested item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyBatch is returned when finalizing a batch without events.
	ErrEmptyBatch = errors.New("empty batch")
	// ErrBatchFinalized is returned when a batch is finalized twice or appended to after finalization.
	ErrBatchFinalized = errors.New("batch already finalized")
	// ErrInvalidCollector indicates a malformed or unsupported collector URL.
	ErrInvalidCollector = errors.New("invalid collector url")
	// ErrMissingMarker indicates the node marker was not configured.
	ErrMissingMarker = errors.New("missing marker")
	// ErrInvalidEvent indicates a received event does not match the envelope.
	ErrInvalidEvent = errors.New("invalid event")
)
