package taxonomy

import "github.com/harukiyade/road-companiesInfo-sub000/pkg/normalize"

// Method records how a classification was reached.
type Method string

const (
	// MethodExact means the full (large, middle, small) triple matched
	// the master exactly.
	MethodExact Method = "exact"
	// MethodNormalized means a free-text detail field normalized to
	// exactly one small-category node.
	MethodNormalized Method = "normalized"
	// MethodSmallIndex means the small category alone resolved through
	// the small-level index.
	MethodSmallIndex Method = "small_index"
	// MethodContains means a bidirectional substring search resolved it.
	MethodContains Method = "contains"
	// MethodUnresolved means no signal matched anything in the master.
	MethodUnresolved Method = "unresolved"
	// MethodStandalone marks the caller-side fallback for unresolved
	// classifications: individual level values rewritten in the master's
	// spelling where they match a level on their own. Classify never
	// returns it.
	MethodStandalone Method = "standalone"
)

// Confidence summarizes how strongly a classification should be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Fields carries the industry-related values available on one record.
// Any of them may be empty.
type Fields struct {
	Large  string
	Middle string
	Small  string
	Detail string
	// FreeText holds any additional unstructured industry descriptions.
	FreeText []string
}

// Classification is the outcome of classifying one record's industry
// fields against the master.
type Classification struct {
	// Node is the chosen master node, nil when unresolved.
	Node       *Node
	Method     Method
	Confidence Confidence
	// ManualReview marks classifications a human should confirm.
	// Candidates then holds every plausible node.
	ManualReview bool
	Candidates   []*Node
}

// Resolved reports whether a master node was chosen.
func (c Classification) Resolved() bool { return c.Node != nil }

// Classify resolves a record's industry fields against the master using a
// fixed priority order, first success wins:
//
//  1. The full triple matches the master exactly.
//  2. The detail field normalizes to exactly one small-category node.
//  3. The small field alone resolves through the small-level index
//     (multiple hits are kept for manual review).
//  4. Bidirectional substring search over every available text field.
//  5. Nothing matched; the caller keeps existing values field by field.
func (idx *Index) Classify(f Fields) Classification {
	if n := idx.LookupTriple(f.Large, f.Middle, f.Small); n != nil {
		return Classification{Node: n, Method: MethodExact, Confidence: ConfidenceHigh}
	}

	if !normalize.IsBlank(f.Detail) {
		if hits := idx.LookupBySmall(f.Detail); len(hits) == 1 {
			return Classification{Node: hits[0], Method: MethodNormalized, Confidence: ConfidenceHigh}
		}
	}

	if !normalize.IsBlank(f.Small) {
		if hits := idx.LookupBySmall(f.Small); len(hits) > 0 {
			if len(hits) == 1 {
				return Classification{Node: hits[0], Method: MethodSmallIndex, Confidence: ConfidenceHigh}
			}
			return Classification{
				Node:         hits[0],
				Method:       MethodSmallIndex,
				Confidence:   ConfidenceMedium,
				ManualReview: true,
				Candidates:   hits,
			}
		}
	}

	for _, probe := range idx.searchTexts(f) {
		hits := idx.SearchContains(probe, LevelAny)
		if len(hits) == 0 {
			continue
		}
		if len(hits) == 1 {
			return Classification{Node: hits[0], Method: MethodContains, Confidence: ConfidenceMedium}
		}
		return Classification{
			Node:         hits[0],
			Method:       MethodContains,
			Confidence:   ConfidenceLow,
			ManualReview: true,
			Candidates:   hits,
		}
	}

	return Classification{Method: MethodUnresolved, Confidence: ConfidenceLow}
}

// searchTexts lists the substring-search probes in priority order,
// most specific first.
func (idx *Index) searchTexts(f Fields) []string {
	var out []string
	for _, s := range append([]string{f.Detail, f.Small, f.Middle, f.Large}, f.FreeText...) {
		if !normalize.IsBlank(s) {
			out = append(out, s)
		}
	}
	return out
}
