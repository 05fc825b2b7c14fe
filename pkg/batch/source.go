// Package batch drives the reconciliation pipeline over a record source:
// bounded worker parallelism for the read-only locate and score phase, a
// single coordinator owning the write batch, retry with backoff on
// transient store errors, and a resumable cursor persisted at page
// boundaries.
package batch

import (
	"context"
	"strconv"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store"
)

// Source yields pages of incoming records under a monotonic cursor. An
// empty page with an empty next cursor ends the run. Cursors must be
// stable across process restarts so a run can resume.
type Source interface {
	NextPage(ctx context.Context, cursor string, size int) (records []*entity.IncomingRecord, next string, err error)
}

// StoreSource paginates the canonical store itself and maps each entity
// through Transform, for backfill and dedupe runs. The cursor is the
// entity ID, which the store orders pages by.
type StoreSource struct {
	Store store.Store
	// Transform derives the incoming record to reprocess from a stored
	// entity. Returning nil skips the entity.
	Transform func(*entity.CanonicalEntity) *entity.IncomingRecord
}

// NextPage implements Source.
func (s *StoreSource) NextPage(ctx context.Context, cursor string, size int) ([]*entity.IncomingRecord, string, error) {
	page, err := s.Store.Paginate(ctx, cursor, size)
	if err != nil {
		return nil, "", err
	}
	records := make([]*entity.IncomingRecord, 0, len(page.Entities))
	for _, e := range page.Entities {
		if rec := s.Transform(e); rec != nil {
			records = append(records, rec)
		}
	}
	return records, page.NextCursor, nil
}

// SliceSource serves an in-memory record list, for CSV imports whose
// mapper loaded the file up front. The cursor is the record index.
type SliceSource struct {
	Records []*entity.IncomingRecord
}

// NextPage implements Source.
func (s *SliceSource) NextPage(ctx context.Context, cursor string, size int) ([]*entity.IncomingRecord, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", err
		}
		start = n
	}
	if start >= len(s.Records) {
		return nil, "", nil
	}
	end := start + size
	if end > len(s.Records) {
		end = len(s.Records)
	}
	next := ""
	if end < len(s.Records) {
		next = strconv.Itoa(end)
	}
	return s.Records[start:end], next, nil
}
