// Package sqlite implements the document store on SQLite: one row per
// entity holding the JSON document plus extracted index columns for the
// queryable fields. A reference collaborator implementation, not part of
// the core contract.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store"
)

// Store is a SQLite-backed document store. Safe for concurrent use; the
// WAL journal allows readers alongside the single writer.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	defaultPageSize = 100
)

const schema = `
CREATE TABLE IF NOT EXISTS companies (
	id               TEXT PRIMARY KEY,
	doc              TEXT NOT NULL,
	corporate_number TEXT NOT NULL DEFAULT '',
	name_key         TEXT NOT NULL DEFAULT '',
	prefecture       TEXT NOT NULL DEFAULT '',
	representative   TEXT NOT NULL DEFAULT '',
	updated_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_companies_corporate_number ON companies(corporate_number) WHERE corporate_number != '';
CREATE INDEX IF NOT EXISTS idx_companies_name_key ON companies(name_key) WHERE name_key != '';
CREATE INDEX IF NOT EXISTS idx_companies_prefecture ON companies(prefecture);
CREATE INDEX IF NOT EXISTS idx_companies_representative ON companies(representative);
`

// indexColumns maps queryable field names to their extracted columns.
var indexColumns = map[string]string{
	store.IndexCorporateNumber: "corporate_number",
	store.IndexNameKey:         "name_key",
	store.IndexPrefecture:      "prefecture",
	store.IndexRepresentative:  "representative",
}

// Open initializes or connects to the company database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if stderrors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// wrap classifies a driver error into the store error taxonomy. Busy and
// lock contention are the transient class the orchestrator retries.
func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.NewStoreError(op, key, isSQLiteBusy(err), err)
}

// GetByID implements store.Store.
func (s *Store) GetByID(ctx context.Context, id string) (*entity.CanonicalEntity, error) {
	var doc string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT doc FROM companies WHERE id = ?`, id).Scan(&doc)
	})
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("entity", id)
	}
	if err != nil {
		return nil, wrap("get", id, err)
	}
	return decode(doc)
}

// QueryEquals implements store.Store.
func (s *Store) QueryEquals(ctx context.Context, field, value string, limit int) ([]*entity.CanonicalEntity, error) {
	col, ok := indexColumns[field]
	if !ok {
		return nil, errors.NewValidationError(field, value, "not a queryable index field")
	}
	if value == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	q := fmt.Sprintf(`SELECT doc FROM companies WHERE %s = ? ORDER BY id LIMIT ?`, col)
	return s.queryDocs(ctx, "query", q, value, limit)
}

// QueryRange implements store.Store.
func (s *Store) QueryRange(ctx context.Context, field, lower, upper string, limit int) ([]*entity.CanonicalEntity, error) {
	col, ok := indexColumns[field]
	if !ok {
		return nil, errors.NewValidationError(field, lower, "not a queryable index field")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	q := fmt.Sprintf(`SELECT doc FROM companies WHERE %s >= ? AND %s < ? AND %s != '' ORDER BY %s, id LIMIT ?`, col, col, col, col)
	return s.queryDocs(ctx, "query", q, lower, upper, limit)
}

// BatchWrite implements store.Store. The batch applies inside one
// transaction; per-op failures are recorded in the result and skipped,
// they do not roll back sibling ops.
func (s *Store) BatchWrite(ctx context.Context, ops []store.Op) (*store.BatchResult, error) {
	if len(ops) > store.MaxBatchOps {
		return nil, errors.ErrBatchTooLarge
	}

	res := &store.BatchResult{Results: make([]store.OpResult, len(ops))}
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		for i, op := range ops {
			res.Results[i] = store.OpResult{ID: op.ID}
			switch op.Type {
			case store.OpSet:
				if op.Entity == nil || op.ID == "" {
					res.Results[i].Err = errors.ErrInvalidInput
					continue
				}
				if err := upsert(ctx, tx, op.Entity); err != nil {
					if isSQLiteBusy(err) {
						return err
					}
					res.Results[i].Err = err
				}
			case store.OpDelete:
				if _, err := tx.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, op.ID); err != nil {
					if isSQLiteBusy(err) {
						return err
					}
					res.Results[i].Err = err
				}
			default:
				res.Results[i].Err = errors.ErrInvalidInput
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, wrap("batch-write", "", err)
	}
	return res, nil
}

// Paginate implements store.Store.
func (s *Store) Paginate(ctx context.Context, cursor string, pageSize int) (*store.Page, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	entities, err := s.queryDocs(ctx, "paginate",
		`SELECT doc FROM companies WHERE id > ? ORDER BY id LIMIT ?`, cursor, pageSize)
	if err != nil {
		return nil, err
	}
	page := &store.Page{Entities: entities}
	if len(entities) == pageSize {
		page.NextCursor = entities[len(entities)-1].ID
	}
	return page, nil
}

func (s *Store) queryDocs(ctx context.Context, op, query string, args ...any) ([]*entity.CanonicalEntity, error) {
	var out []*entity.CanonicalEntity
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var doc string
			if err := rows.Scan(&doc); err != nil {
				return err
			}
			e, err := decode(doc)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrap(op, "", err)
	}
	return out, nil
}

func upsert(ctx context.Context, tx *sql.Tx, e *entity.CanonicalEntity) error {
	doc, err := json.Marshal(e)
	if err != nil {
		return err
	}
	idx := store.IndexValues(e)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO companies (id, doc, corporate_number, name_key, prefecture, representative, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc = excluded.doc,
			corporate_number = excluded.corporate_number,
			name_key = excluded.name_key,
			prefecture = excluded.prefecture,
			representative = excluded.representative,
			updated_at = excluded.updated_at`,
		e.ID, string(doc),
		idx[store.IndexCorporateNumber], idx[store.IndexNameKey],
		idx[store.IndexPrefecture], idx[store.IndexRepresentative],
		time.Now().UTC().Format(time.RFC3339))
	return err
}

func decode(doc string) (*entity.CanonicalEntity, error) {
	var e entity.CanonicalEntity
	if err := json.Unmarshal([]byte(doc), &e); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return &e, nil
}
