package match

import (
	"sort"
	"strings"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/normalize"
)

// Signal weights. Registration equality alone clears the high
// threshold; exact name equality alone only reaches the minimum, and
// prefecture plus representative together clear high.
const (
	WeightRegistration   = 100
	WeightName           = 20
	WeightPrefecture     = 30
	WeightRepresentative = 30
	WeightAddressFull    = 40
	WeightAddressContain = 30
	WeightAddressPrefix  = 20
	WeightPostal         = 20
	WeightPhone          = 20
	WeightURLHost        = 20

	// HighThreshold is the score at or above which the top candidate is
	// merged into automatically.
	HighThreshold = 60
	// MinimumThreshold is the score below which a record is unmatched.
	MinimumThreshold = 20
	// AmbiguousBand is the score gap under which a runner-up makes the
	// match worth surfacing for audit.
	AmbiguousBand = 10

	// addressPrefixRunes is the shared-prefix length that still counts
	// as address evidence.
	addressPrefixRunes = 5
)

// Signal names as they appear in candidate score breakdowns and the
// audit report.
const (
	SignalRegistration   = "registration"
	SignalName           = "name"
	SignalPrefecture     = "prefecture"
	SignalRepresentative = "representative"
	SignalAddress        = "address"
	SignalPostal         = "postal"
	SignalPhone          = "phone"
	SignalURLHost        = "url_host"
)

// Candidate is one scored candidate: the entity, the per-signal
// contributions, and their sum.
type Candidate struct {
	Entity  *entity.CanonicalEntity
	Score   int
	Signals map[string]int
}

// Confidence summarizes how strongly a match should be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Kind discriminates the match decision.
type Kind int

const (
	// Unmatched means no candidate cleared the minimum threshold; the
	// caller creates a new entity.
	Unmatched Kind = iota
	// Matched means the best candidate is merged into cleanly.
	Matched
	// Ambiguous means the best candidate is still used, but the event
	// carries the full candidate list for audit review.
	Ambiguous
)

// Result is the tagged outcome of scoring one record. Candidates holds
// every scored candidate in descending score order (ties broken by
// entity ID) regardless of kind.
type Result struct {
	Kind       Kind
	Confidence Confidence
	Best       *Candidate
	Candidates []*Candidate
}

// Duplicates returns the candidates judged to represent the same
// real-world entity as the best: everyone at or above the high
// threshold, when at least two clear it. The merge engine collapses
// them into the best before applying the incoming record.
func (r *Result) Duplicates() []*Candidate {
	if r.Best == nil || r.Best.Score < HighThreshold {
		return nil
	}
	var dups []*Candidate
	for _, c := range r.Candidates {
		if c.Score >= HighThreshold {
			dups = append(dups, c)
		}
	}
	if len(dups) < 2 {
		return nil
	}
	return dups
}

// Score computes one candidate's weighted score against the record.
// Purely additive over independent signals, so adding a true-positive
// signal can never lower the score.
func Score(rec *entity.IncomingRecord, cand *entity.CanonicalEntity) *Candidate {
	c := &Candidate{Entity: cand, Signals: make(map[string]int)}
	add := func(signal string, w int) {
		c.Signals[signal] = w
		c.Score += w
	}

	if reg := rec.Registration(); reg != "" && reg == cand.Registration() {
		add(SignalRegistration, WeightRegistration)
	}

	if nk := rec.NameKey(); nk != "" && nk == cand.NameKey() {
		add(SignalName, WeightName)
	}

	if p := rec.EffectivePrefecture(); p != "" && p == cand.EffectivePrefecture() {
		add(SignalPrefecture, WeightPrefecture)
	}

	if rep := normalize.Key(rec.Get(entity.FieldRepresentativeName)); rep != "" &&
		rep == normalize.Key(cand.RepresentativeName) {
		add(SignalRepresentative, WeightRepresentative)
	}

	if w := addressWeight(rec.Get(entity.FieldAddress), cand.Address); w > 0 {
		add(SignalAddress, w)
	}

	if pc, ok := normalize.PostalCode(rec.Get(entity.FieldPostalCode)); ok {
		if cpc, ok := normalize.PostalCode(cand.PostalCode); ok && pc == cpc {
			add(SignalPostal, WeightPostal)
		}
	}

	if ph, ok := normalize.Phone(rec.Get(entity.FieldPhone)); ok {
		if cph, ok := normalize.Phone(cand.Phone); ok && normalize.PhoneMatch(ph, cph) {
			add(SignalPhone, WeightPhone)
		}
	}

	if h, ok := normalize.URLHost(rec.Get(entity.FieldURL)); ok {
		if ch, ok := normalize.URLHost(cand.URL); ok && h == ch {
			add(SignalURLHost, WeightURLHost)
		}
	}

	return c
}

// addressWeight grades address agreement: full normalized equality, one
// containing the other, or a shared prefix of at least five runes.
func addressWeight(a, b string) int {
	ka := normalize.Key(normalize.CleanAddress(a))
	kb := normalize.Key(normalize.CleanAddress(b))
	if ka == "" || kb == "" {
		return 0
	}
	if ka == kb {
		return WeightAddressFull
	}
	if strings.Contains(ka, kb) || strings.Contains(kb, ka) {
		return WeightAddressContain
	}
	if sharedPrefixRunes(ka, kb) >= addressPrefixRunes {
		return WeightAddressPrefix
	}
	return 0
}

func sharedPrefixRunes(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n := 0
	for n < len(ra) && n < len(rb) && ra[n] == rb[n] {
		n++
	}
	return n
}

// Classify scores every candidate and folds them into a tagged decision.
// Ties at the top score break deterministically by entity ID, never by
// store query order.
func Classify(rec *entity.IncomingRecord, cands []*entity.CanonicalEntity) *Result {
	scored := make([]*Candidate, 0, len(cands))
	for _, c := range cands {
		scored = append(scored, Score(rec, c))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entity.ID < scored[j].Entity.ID
	})

	res := &Result{Candidates: scored}
	if len(scored) == 0 || scored[0].Score < MinimumThreshold {
		res.Kind = Unmatched
		res.Confidence = ConfidenceLow
		return res
	}

	res.Best = scored[0]
	switch {
	case res.Best.Score >= HighThreshold:
		res.Confidence = ConfidenceHigh
		res.Kind = Matched
		// a close runner-up below the duplicate-collapse bar still
		// deserves an audit marker
		if len(scored) > 1 {
			second := scored[1]
			if second.Score < HighThreshold && res.Best.Score-second.Score <= AmbiguousBand {
				res.Kind = Ambiguous
			}
		}
	default:
		res.Confidence = ConfidenceMedium
		res.Kind = Ambiguous
	}
	return res
}
