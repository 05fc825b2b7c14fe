// Package merge applies the field-level merge policy: given a match
// decision and an incoming record it produces the surviving entity state
// and the write operations that realize it, without ever silently
// destroying higher-quality data.
package merge

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
)

// Action is what the merge does to one field.
type Action string

const (
	// ActionAuthoritative overwrites whenever the incoming value is
	// non-empty. An empty incoming value clears an existing value that
	// fails validation rather than leaving it invalid.
	ActionAuthoritative Action = "authoritative"
	// ActionFillOnly writes only when the stored value is empty or a
	// placeholder.
	ActionFillOnly Action = "fill_only"
	// ActionUnion merges list values as a set, equality judged after
	// normalization.
	ActionUnion Action = "union"
	// ActionKeepLonger keeps the longer of two non-empty text values.
	ActionKeepLonger Action = "keep_longer"
	// ActionSkip leaves the field untouched by this pipeline.
	ActionSkip Action = "skip"
)

// Policy is one pipeline's per-field action set. Fields not listed fall
// back to a default chosen by field kind.
type Policy struct {
	Source  entity.Source
	actions map[string]Action
}

// ActionFor resolves the action for a field: the explicit entry when one
// exists, otherwise union for lists, keep-longer for long text, and
// fill-only for everything else.
func (p *Policy) ActionFor(f entity.FieldDef) Action {
	if a, ok := p.actions[f.Name]; ok {
		return a
	}
	switch f.Kind {
	case entity.KindList:
		return ActionUnion
	case entity.KindLongText:
		return ActionKeepLonger
	default:
		return ActionFillOnly
	}
}

// Policies maps each source pipeline to its policy.
type Policies map[entity.Source]*Policy

// For returns the policy for a source, falling back to an empty policy
// (pure defaults) for unknown sources.
func (ps Policies) For(src entity.Source) *Policy {
	if p, ok := ps[src]; ok {
		return p
	}
	return &Policy{Source: src, actions: map[string]Action{}}
}

// DefaultPolicies returns the compiled-in policy set.
//
// The CSV company pipeline owns the registration number; the transaction
// pipeline owns only the transaction type; the taxonomy pipeline owns
// the four industry levels; scraped data is the weakest source and only
// ever fills gaps.
func DefaultPolicies() Policies {
	return Policies{
		entity.SourceCSVCompany: {
			Source: entity.SourceCSVCompany,
			actions: map[string]Action{
				entity.FieldCorporateNumber: ActionAuthoritative,
			},
		},
		entity.SourceCSVTransaction: {
			Source: entity.SourceCSVTransaction,
			actions: map[string]Action{
				entity.FieldTransactionType: ActionAuthoritative,
			},
		},
		entity.SourceTaxonomy: {
			Source: entity.SourceTaxonomy,
			actions: map[string]Action{
				entity.FieldIndustryLarge:  ActionAuthoritative,
				entity.FieldIndustryMiddle: ActionAuthoritative,
				entity.FieldIndustrySmall:  ActionAuthoritative,
				entity.FieldIndustryDetail: ActionAuthoritative,
			},
		},
		entity.SourceScraped: {
			Source:  entity.SourceScraped,
			actions: map[string]Action{},
		},
		// dedupe records restate a stored entity's own values; the run's
		// effect is the duplicate collapse, never a field change
		entity.SourceDedupe: {
			Source:  entity.SourceDedupe,
			actions: map[string]Action{},
		},
	}
}

// policyFile is the YAML shape for policy overrides:
//
//	pipelines:
//	  csv_company:
//	    name: authoritative
//	    clients: union
type policyFile struct {
	Pipelines map[string]map[string]string `yaml:"pipelines"`
}

var validActions = map[Action]bool{
	ActionAuthoritative: true,
	ActionFillOnly:      true,
	ActionUnion:         true,
	ActionKeepLonger:    true,
	ActionSkip:          true,
}

// LoadPolicies reads a YAML policy document and overlays it on the
// defaults. Unknown fields and actions are rejected so a typo cannot
// silently revert a field to its default.
func LoadPolicies(r io.Reader) (Policies, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", "policy", err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, errors.WrapParse("yaml", "policy", err)
	}

	ps := DefaultPolicies()
	for src, fields := range pf.Pipelines {
		p := ps.For(entity.Source(src))
		for field, action := range fields {
			if _, ok := entity.FieldByName(field); !ok {
				return nil, errors.NewParseError("yaml", "policy",
					fmt.Sprintf("unknown field %q in pipeline %q", field, src), nil)
			}
			a := Action(action)
			if !validActions[a] {
				return nil, errors.NewParseError("yaml", "policy",
					fmt.Sprintf("unknown action %q for field %q", action, field), nil)
			}
			p.actions[field] = a
		}
		ps[entity.Source(src)] = p
	}
	return ps, nil
}

// LoadPoliciesFile reads policy overrides from a YAML file at path.
func LoadPoliciesFile(path string) (Policies, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	defer f.Close()
	return LoadPolicies(f)
}
