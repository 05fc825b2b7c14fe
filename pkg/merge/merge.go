package merge

import (
	"time"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/match"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/normalize"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store"
)

// OutcomeKind is the terminal state for one processed record. There is
// no partial state: transient failures return to the orchestrator for
// retry instead of producing a third kind.
type OutcomeKind string

const (
	// Merged means the record folded into an existing entity.
	Merged OutcomeKind = "merged"
	// Created means no candidate cleared the minimum threshold and a
	// new entity was built from the record.
	Created OutcomeKind = "created"
)

// Outcome is the merge engine's decision for one record: the surviving
// entity state and the operations that realize it. Ops list collapse
// deletes before the winner set, and the whole outcome must land in one
// batch so deletes never commit after the winner.
type Outcome struct {
	Kind         OutcomeKind
	Entity       *entity.CanonicalEntity
	Ops          []store.Op
	CollapsedIDs []string
	// Changed is false when the merge was a no-op; the orchestrator
	// skips the write entirely.
	Changed bool
}

// fieldValidators mark stored values that an authoritative empty
// incoming value clears instead of preserving.
var fieldValidators = map[string]func(string) bool{
	entity.FieldCorporateNumber: func(v string) bool {
		_, ok := normalize.Registration(v)
		return ok
	},
	entity.FieldPostalCode: func(v string) bool {
		_, ok := normalize.PostalCode(v)
		return ok
	},
}

// Engine applies merge policies. Stateless apart from the policy set,
// safe for concurrent use.
type Engine struct {
	policies Policies
	now      func() time.Time
}

// NewEngine returns an engine over the given policy set.
func NewEngine(policies Policies) *Engine {
	return &Engine{policies: policies, now: time.Now}
}

// Decide turns a match result plus the incoming record into a terminal
// outcome. The collapse survivor is always the lowest entity ID in the
// duplicate set, never the best-scored candidate. Idempotent: deciding
// the same record against the resulting state again yields no changes.
func (m *Engine) Decide(res *match.Result, rec *entity.IncomingRecord) *Outcome {
	if res == nil || res.Kind == match.Unmatched {
		return m.create(rec)
	}

	dups := res.Duplicates()

	// the collapse survivor is the lowest entity ID in the duplicate
	// set, not the best-scored candidate. Two records triggering the
	// same collapse from different sides must pick the same survivor,
	// or their queued write ops contradict each other.
	survivor := res.Best.Entity
	for _, dup := range dups {
		if dup.Entity.ID < survivor.ID {
			survivor = dup.Entity
		}
	}

	winner := survivor.Clone()
	out := &Outcome{Kind: Merged, Entity: winner}

	// fold duplicate candidates into the winner before the record
	// applies, so the incoming data wins any overlap
	for _, dup := range dups {
		if dup.Entity.ID == winner.ID {
			continue
		}
		foldEntity(winner, dup.Entity)
		out.CollapsedIDs = append(out.CollapsedIDs, dup.Entity.ID)
		out.Ops = append(out.Ops, store.Delete(dup.Entity.ID))
		// the deletes must land, so a collapse is always a change even
		// when no field value moved
		out.Changed = true
	}

	if m.applyRecord(winner, rec) {
		out.Changed = true
	}
	if out.Changed {
		winner.UpdatedAt = m.now().UTC()
		out.Ops = append(out.Ops, store.Set(winner))
	}
	return out
}

func (m *Engine) create(rec *entity.IncomingRecord) *Outcome {
	e := &entity.CanonicalEntity{
		ID:        entity.NewID(rec.Get(entity.FieldCorporateNumber)),
		CreatedAt: m.now().UTC(),
		UpdatedAt: m.now().UTC(),
	}
	m.applyRecord(e, rec)
	return &Outcome{
		Kind:    Created,
		Entity:  e,
		Ops:     []store.Op{store.Set(e)},
		Changed: true,
	}
}

// applyRecord merges the record into the entity per the source's policy.
func (m *Engine) applyRecord(e *entity.CanonicalEntity, rec *entity.IncomingRecord) bool {
	policy := m.policies.For(rec.Source)
	changed := false
	for _, f := range entity.Fields() {
		action := policy.ActionFor(f)
		if action == ActionSkip {
			continue
		}
		if f.Kind == entity.KindList {
			if unionList(e, f, rec.Lists[f.Name]) {
				changed = true
			}
			continue
		}
		if applyScalar(e, f, rec.Fields[f.Name], action) {
			changed = true
		}
	}
	return changed
}

func applyScalar(e *entity.CanonicalEntity, f entity.FieldDef, incoming string, action Action) bool {
	existing := f.GetString(e)
	switch action {
	case ActionAuthoritative:
		if !normalize.IsBlank(incoming) {
			if incoming == existing {
				return false
			}
			f.SetString(e, incoming)
			return true
		}
		// incoming empty: clear an existing value that fails validation
		if validate, ok := fieldValidators[f.Name]; ok && existing != "" && !validate(existing) {
			f.SetString(e, "")
			return true
		}
		return false
	case ActionKeepLonger:
		if normalize.IsBlank(incoming) {
			return false
		}
		if normalize.IsBlank(existing) || len([]rune(incoming)) > len([]rune(existing)) {
			if incoming == existing {
				return false
			}
			f.SetString(e, incoming)
			return true
		}
		return false
	default: // fill-only
		if !normalize.IsBlank(incoming) && normalize.IsBlank(existing) {
			f.SetString(e, incoming)
			return true
		}
		return false
	}
}

// unionList appends incoming values absent from the existing list,
// equality judged on normalized keys. Existing order is preserved.
func unionList(e *entity.CanonicalEntity, f entity.FieldDef, incoming []string) bool {
	if len(incoming) == 0 {
		return false
	}
	existing := f.GetList(e)
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[normalize.Key(v)] = true
	}
	changed := false
	for _, v := range incoming {
		if normalize.IsBlank(v) {
			continue
		}
		k := normalize.Key(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		existing = append(existing, v)
		changed = true
	}
	if changed {
		f.SetList(e, existing)
	}
	return changed
}

// foldEntity folds a losing duplicate's values into the winner with the
// conservative rules only: fill-only scalars, union lists, keep-longer
// long text and names. Authoritative ownership belongs to pipelines,
// not losers.
func foldEntity(winner, loser *entity.CanonicalEntity) bool {
	changed := false
	for _, f := range entity.Fields() {
		if f.Kind == entity.KindList {
			if unionList(winner, f, f.GetList(loser)) {
				changed = true
			}
			continue
		}
		action := ActionFillOnly
		if f.Kind == entity.KindLongText || f.Name == entity.FieldName {
			// a duplicate pair often splits the abbreviated and the full
			// legal form of the name; the collapse keeps the longer one
			action = ActionKeepLonger
		}
		if applyScalar(winner, f, f.GetString(loser), action) {
			changed = true
		}
	}
	return changed
}
