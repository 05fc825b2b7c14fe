// Package store defines the document-store contract the reconciliation
// core consumes. The core never assumes more than these five operations,
// so any backend that can answer them is a valid collaborator.
package store

import (
	"context"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/normalize"
)

// MaxBatchOps is the hard per-batch write limit a backend may enforce.
// Callers must keep batches at or below this size.
const MaxBatchOps = 500

// Queryable index fields. Backends maintain these as extracted columns
// over the stored document; IndexValues computes them.
const (
	IndexCorporateNumber = "corporateNumber"
	IndexNameKey         = "nameKey"
	IndexPrefecture      = "prefecture"
	IndexRepresentative  = "representativeName"
)

// Store is the five-operation document store the pipeline runs against.
type Store interface {
	// GetByID fetches one entity by identifier. Returns a
	// not-found error when no document exists.
	GetByID(ctx context.Context, id string) (*entity.CanonicalEntity, error)

	// QueryEquals returns up to limit entities whose index field equals
	// value. A zero limit means backend default.
	QueryEquals(ctx context.Context, field, value string, limit int) ([]*entity.CanonicalEntity, error)

	// QueryRange returns up to limit entities whose index field lies in
	// [lower, upper), ordered by the field.
	QueryRange(ctx context.Context, field, lower, upper string, limit int) ([]*entity.CanonicalEntity, error)

	// BatchWrite applies a batch of set/delete operations. Batches over
	// MaxBatchOps are rejected whole. Per-op failures are reported in
	// the result and do not fail sibling ops.
	BatchWrite(ctx context.Context, ops []Op) (*BatchResult, error)

	// Paginate returns one page of entities ordered by ID, strictly
	// after the cursor. An empty cursor starts from the beginning; an
	// empty NextCursor marks the final page.
	Paginate(ctx context.Context, cursor string, pageSize int) (*Page, error)
}

// OpType discriminates batch write operations.
type OpType int

const (
	// OpSet creates or fully replaces a document.
	OpSet OpType = iota
	// OpDelete removes a document. Deleting an absent ID is not an
	// error; collapse retries must be idempotent.
	OpDelete
)

// Op is one write operation in a batch.
type Op struct {
	Type   OpType
	ID     string
	Entity *entity.CanonicalEntity
}

// Set builds a set op for an entity.
func Set(e *entity.CanonicalEntity) Op { return Op{Type: OpSet, ID: e.ID, Entity: e} }

// Delete builds a delete op for an ID.
func Delete(id string) Op { return Op{Type: OpDelete, ID: id} }

// OpResult reports the outcome of one op within a batch.
type OpResult struct {
	ID  string
	Err error
}

// BatchResult reports per-op outcomes for one committed batch.
type BatchResult struct {
	Results []OpResult
}

// Failed counts ops that did not apply.
func (r *BatchResult) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Page is one pagination unit.
type Page struct {
	Entities   []*entity.CanonicalEntity
	NextCursor string
}

// IndexValues computes the extracted index-column values for an entity.
// Every backend derives its query columns from this one function so the
// index semantics cannot drift between implementations.
func IndexValues(e *entity.CanonicalEntity) map[string]string {
	return map[string]string{
		IndexCorporateNumber: e.Registration(),
		IndexNameKey:         e.NameKey(),
		IndexPrefecture:      e.EffectivePrefecture(),
		IndexRepresentative:  normalize.Key(e.RepresentativeName),
	}
}

// QueryValue normalizes a caller-supplied value into the form the index
// stores for the given field.
func QueryValue(field, value string) string {
	switch field {
	case IndexCorporateNumber:
		if reg, ok := normalize.Registration(value); ok {
			return reg
		}
		return value
	case IndexNameKey:
		return normalize.NameKey(value)
	case IndexPrefecture:
		return normalize.ExtractPrefecture(value)
	case IndexRepresentative:
		return normalize.Key(value)
	}
	return value
}
