// Package match bounds the candidate search space for an incoming record
// and scores the candidates into a tagged match decision. Locating and
// scoring are read-only against the store, so the batch orchestrator runs
// them concurrently across records.
package match

import (
	"context"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/logging"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/normalize"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store"
)

// MaxCandidates caps the locator's output. Filtering beyond the cap is
// the scorer's job, not the locator's.
const MaxCandidates = 50

// namePrefixRunes is how much of the name key the second-pass range
// query keeps. Short enough to survive punctuation differences, long
// enough to stay selective.
const namePrefixRunes = 5

// Locator finds candidate entities for an incoming record.
type Locator struct {
	store store.Store
}

// NewLocator returns a locator over the given store.
func NewLocator(s store.Store) *Locator {
	return &Locator{store: s}
}

// Locate returns a capped candidate list for the record.
//
// A validated registration number is authoritative: primary-key lookup
// unioned with an equality query on the registration index. When both miss,
// the record is a new entity; name search does not run, because a real
// registration number that is absent from the store identifies nobody.
// Dummy numbers never reach the store as keys and fall through to the
// name path: equality on the normalized name key, then a bounded
// name-prefix range query as a second pass. Only the range pass is
// narrowed by prefecture and representative; exact name hits all go to
// the scorer, which separates same-named companies by their other
// fields instead of hiding them.
func (l *Locator) Locate(ctx context.Context, rec *entity.IncomingRecord) ([]*entity.CanonicalEntity, error) {
	if reg := rec.Registration(); reg != "" {
		return l.byRegistration(ctx, reg)
	}
	return l.byName(ctx, rec)
}

func (l *Locator) byRegistration(ctx context.Context, reg string) ([]*entity.CanonicalEntity, error) {
	var cands []*entity.CanonicalEntity
	e, err := l.store.GetByID(ctx, reg)
	switch {
	case err == nil:
		cands = append(cands, e)
	case !errors.IsNotFound(err):
		return nil, err
	}
	// the same registration number can also live on entities stored
	// under surrogate document IDs
	hits, err := l.store.QueryEquals(ctx, store.IndexCorporateNumber, reg, MaxCandidates)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, c := range cands {
		seen[c.ID] = true
	}
	for _, h := range hits {
		if !seen[h.ID] {
			seen[h.ID] = true
			cands = append(cands, h)
		}
	}
	return cap50(cands), nil
}

func (l *Locator) byName(ctx context.Context, rec *entity.IncomingRecord) ([]*entity.CanonicalEntity, error) {
	nameKey := rec.NameKey()
	if nameKey == "" {
		return nil, nil
	}

	hits, err := l.store.QueryEquals(ctx, store.IndexNameKey, nameKey, MaxCandidates)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		return cap50(hits), nil
	}

	prefix := runePrefix(nameKey, namePrefixRunes)
	ranged, err := l.store.QueryRange(ctx, store.IndexNameKey, prefix, prefix+"￿", MaxCandidates)
	if err != nil {
		return nil, err
	}
	if len(ranged) > 0 {
		logging.Ctx(ctx).Debug().
			Str("name_key", nameKey).
			Int("candidates", len(ranged)).
			Msg("name prefix range fallback")
	}
	return cap50(narrow(ranged, rec)), nil
}

// narrow drops range-pass candidates that contradict the record's
// prefecture or representative. A five-rune name prefix is far less
// selective than the full name key, so a present, different value
// disqualifies; candidates missing the field are kept.
func narrow(cands []*entity.CanonicalEntity, rec *entity.IncomingRecord) []*entity.CanonicalEntity {
	pref := rec.EffectivePrefecture()
	rep := normalize.Key(rec.Get(entity.FieldRepresentativeName))

	var out []*entity.CanonicalEntity
	for _, c := range cands {
		if pref != "" {
			if cp := c.EffectivePrefecture(); cp != "" && cp != pref {
				continue
			}
		}
		if rep != "" {
			if cr := normalize.Key(c.RepresentativeName); cr != "" && cr != rep {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func cap50(cands []*entity.CanonicalEntity) []*entity.CanonicalEntity {
	if len(cands) > MaxCandidates {
		return cands[:MaxCandidates]
	}
	return cands
}

func runePrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
