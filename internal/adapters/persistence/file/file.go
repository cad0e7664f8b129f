// Package file saves and restores collector events as a JSON file.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/ports"
)

type Persister struct {
	path string
}

var _ ports.Persister = (*Persister)(nil)

func New(path string) *Persister {
	return &Persister{path: path}
}

func (p *Persister) Save(_ context.Context, events []domain.StoredEvent) error {
	if events == nil {
		events = []domain.StoredEvent{}
	}
	return writeJSONAtomic(p.path, events)
}

// Restore appends the saved events to repo. A missing file is not an error.
func (p *Persister) Restore(ctx context.Context, repo ports.EventRepo) (retErr error) {
	f, err := os.Open(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close: %w", cerr)
		}
	}()

	var events []domain.StoredEvent
	if err := json.NewDecoder(f).Decode(&events); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if len(events) == 0 {
		return nil
	}
	return repo.Append(ctx, events)
}

func writeJSONAtomic(path string, events []domain.StoredEvent) (retErr error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".events-*")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		if err := os.Remove(tmpName); err != nil && retErr == nil {
			retErr = fmt.Errorf("remove tmp: %w", err)
		}
	}()

	if err := json.NewEncoder(tmp).Encode(events); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tmp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	committed = true
	return nil
}
