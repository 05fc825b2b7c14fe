// Package memory provides an in-process Store used by tests and dry
// runs. It keeps deep copies of every document, so callers can mutate
// what they read without corrupting the store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store"
)

// Store is an in-memory document store. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*entity.CanonicalEntity

	failErr   error
	failCount int
}

// New returns an empty store.
func New() *Store {
	return &Store{docs: make(map[string]*entity.CanonicalEntity)}
}

// Seed inserts entities directly, bypassing batch accounting. Test setup
// helper.
func (s *Store) Seed(entities ...*entity.CanonicalEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entities {
		s.docs[e.ID] = e.Clone()
	}
}

// FailNext makes the next n read operations return err, then recovers.
// Used to exercise retry paths.
func (s *Store) FailNext(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCount = n
	s.failErr = err
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *Store) takeFailure() error {
	if s.failCount > 0 {
		s.failCount--
		return s.failErr
	}
	return nil
}

// GetByID implements store.Store.
func (s *Store) GetByID(ctx context.Context, id string) (*entity.CanonicalEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	err := s.takeFailure()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.docs[id]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "entity", ID: id}
	}
	return e.Clone(), nil
}

// QueryEquals implements store.Store.
func (s *Store) QueryEquals(ctx context.Context, field, value string, limit int) ([]*entity.CanonicalEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	err := s.takeFailure()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.CanonicalEntity
	for _, id := range s.sortedIDs() {
		if store.IndexValues(s.docs[id])[field] == value {
			out = append(out, s.docs[id].Clone())
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// QueryRange implements store.Store.
func (s *Store) QueryRange(ctx context.Context, field, lower, upper string, limit int) ([]*entity.CanonicalEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	err := s.takeFailure()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	type keyed struct {
		key string
		e   *entity.CanonicalEntity
	}
	var hits []keyed
	for _, e := range s.docs {
		k := store.IndexValues(e)[field]
		if k == "" || k < lower || (upper != "" && k >= upper) {
			continue
		}
		hits = append(hits, keyed{key: k, e: e})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].key != hits[j].key {
			return hits[i].key < hits[j].key
		}
		return hits[i].e.ID < hits[j].e.ID
	})
	var out []*entity.CanonicalEntity
	for _, h := range hits {
		out = append(out, h.e.Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// BatchWrite implements store.Store.
func (s *Store) BatchWrite(ctx context.Context, ops []store.Op) (*store.BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ops) > store.MaxBatchOps {
		return nil, errors.ErrBatchTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res := &store.BatchResult{Results: make([]store.OpResult, len(ops))}
	for i, op := range ops {
		res.Results[i].ID = op.ID
		switch op.Type {
		case store.OpSet:
			if op.Entity == nil || op.ID == "" {
				res.Results[i].Err = errors.ErrInvalidInput
				continue
			}
			s.docs[op.ID] = op.Entity.Clone()
		case store.OpDelete:
			delete(s.docs, op.ID)
		default:
			res.Results[i].Err = errors.ErrInvalidInput
		}
	}
	return res, nil
}

// Paginate implements store.Store.
func (s *Store) Paginate(ctx context.Context, cursor string, pageSize int) (*store.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	err := s.takeFailure()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	page := &store.Page{}
	for _, id := range s.sortedIDs() {
		if id <= cursor {
			continue
		}
		page.Entities = append(page.Entities, s.docs[id].Clone())
		if len(page.Entities) >= pageSize {
			page.NextCursor = id
			break
		}
	}
	return page, nil
}

// sortedIDs returns every document ID ascending. Callers hold the lock.
func (s *Store) sortedIDs() []string {
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
