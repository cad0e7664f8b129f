// Package postgres implements a Postgres-backed event repository.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/misc"
	"github.com/vshulcz/Cubeship/internal/ports"
)

// Repo persists events in Postgres with retryable operations.
type Repo struct {
	db *sql.DB
}

var _ ports.EventRepo = (*Repo)(nil)

var retryablePGCodes = map[string]struct{}{
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.TransactionResolutionUnknown:                  {},
	pgerrcode.ProtocolViolation:                             {},
	pgerrcode.SerializationFailure:                          {},
	pgerrcode.DeadlockDetected:                              {},
	pgerrcode.LockNotAvailable:                              {},
	pgerrcode.TooManyConnections:                            {},
	pgerrcode.AdminShutdown:                                 {},
	pgerrcode.CrashShutdown:                                 {},
	pgerrcode.CannotConnectNow:                              {},
	pgerrcode.QueryCanceled:                                 {},
}

const qInsert = `
INSERT INTO events (id, type, marker, event_time, data, received_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING;`

const qList = `
SELECT id, type, event_time, data, received_at FROM (
    SELECT seq, id, type, event_time, data, received_at
    FROM events
    WHERE ($1 = '' OR type = $1) AND ($2 = '' OR marker = $2)
    ORDER BY seq DESC
    LIMIT $3
) newest
ORDER BY seq ASC;`

// New returns a Postgres-backed repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Append inserts events inside one transaction. Events already stored under the same id are skipped.
func (r *Repo) Append(ctx context.Context, events []domain.StoredEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", e.ID, err)
		}
		rows = append(rows, []any{e.ID, string(e.Type), e.Marker(), e.Time, data, e.ReceivedAt})
	}

	attempt := func() error {
		tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback()
		}()

		stmt, err := tx.PrepareContext(ctx, qInsert)
		if err != nil {
			return err
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, args := range rows {
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return err
			}
		}
		return tx.Commit()
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, attempt)
}

// List returns matching events oldest first. A positive limit keeps only the newest ones.
func (r *Repo) List(ctx context.Context, f domain.EventFilter) ([]domain.StoredEvent, error) {
	var limit any
	if f.Limit > 0 {
		limit = f.Limit
	}

	var result []domain.StoredEvent
	op := func() error {
		rows, err := r.db.QueryContext(ctx, qList, string(f.Type), f.Marker, limit)
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()

		out := make([]domain.StoredEvent, 0)
		for rows.Next() {
			var (
				e    domain.StoredEvent
				typ  string
				data []byte
			)
			if err := rows.Scan(&e.ID, &typ, &e.Time, &data, &e.ReceivedAt); err != nil {
				return err
			}
			e.Type = domain.EventType(typ)
			if err := json.Unmarshal(data, &e.Data); err != nil {
				return fmt.Errorf("decode event %s: %w", e.ID, err)
			}
			out = append(out, e)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		result = out
		return nil
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		return nil, err
	}
	return result, nil
}

// Ping verifies the database connection using a short-lived context.
func (r *Repo) Ping(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	op := func() error {
		return r.db.PingContext(ctx)
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

// IsRetryable reports whether the error should trigger a retry according to Postgres semantics.
func IsRetryable(err error) bool {
	return isRetryablePG(err)
}

func isRetryablePG(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return isRetryablePGCode(string(pqe.Code))
	}
	return false
}

func isRetryablePGCode(code string) bool {
	if _, ok := retryablePGCodes[code]; ok {
		return true
	}
	return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "40")
}
