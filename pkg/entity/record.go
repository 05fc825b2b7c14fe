package entity

import "github.com/harukiyade/road-companiesInfo-sub000/pkg/normalize"

// Source identifies which mapper produced an incoming record. The set is
// closed: the core never dispatches on raw header strings, only on these
// variants.
type Source string

const (
	// SourceCSVCompany is a company-master CSV row (any of the known
	// column layouts, already mapped to canonical field names).
	SourceCSVCompany Source = "csv_company"
	// SourceCSVTransaction is a transaction-type CSV row carrying only a
	// registration number and a transaction type.
	SourceCSVTransaction Source = "csv_transaction"
	// SourceScraped is a flat field map from the homepage scraper.
	SourceScraped Source = "scraped"
	// SourceTaxonomy is an industry-backfill record derived from the
	// taxonomy master.
	SourceTaxonomy Source = "taxonomy"
	// SourceDedupe is a record re-derived from a stored entity so the
	// pipeline can collapse its duplicates. It carries no new data.
	SourceDedupe Source = "dedupe"
)

// IncomingRecord is one record entering the pipeline: a flat field map
// keyed by canonical field names plus its declared source. Ephemeral,
// never persisted as-is.
type IncomingRecord struct {
	Source Source
	Fields map[string]string
	Lists  map[string][]string

	// Method optionally names how a derived record resolved its values,
	// for the audit report. Mappers over raw sources leave it empty.
	Method string
	// Candidates optionally lists alternative resolutions a human should
	// review before trusting the record's values.
	Candidates []string
}

// NewRecord returns an empty record for the given source.
func NewRecord(src Source) *IncomingRecord {
	return &IncomingRecord{
		Source: src,
		Fields: make(map[string]string),
		Lists:  make(map[string][]string),
	}
}

// Get returns the scalar value for a field, "" when absent.
func (r *IncomingRecord) Get(field string) string { return r.Fields[field] }

// Has reports whether the record carries a non-blank value for field,
// scalar or list.
func (r *IncomingRecord) Has(field string) bool {
	if !normalize.IsBlank(r.Fields[field]) {
		return true
	}
	return len(r.Lists[field]) > 0
}

// Set stores a scalar value, dropping blanks so absent and placeholder
// values are indistinguishable downstream.
func (r *IncomingRecord) Set(field, value string) {
	if normalize.IsBlank(value) {
		return
	}
	r.Fields[field] = value
}

// Add appends a list value, skipping blanks.
func (r *IncomingRecord) Add(field, value string) {
	if normalize.IsBlank(value) {
		return
	}
	r.Lists[field] = append(r.Lists[field], value)
}

// Registration returns the record's validated registration number, or "".
func (r *IncomingRecord) Registration() string {
	reg, ok := normalize.Registration(r.Get(FieldCorporateNumber))
	if !ok {
		return ""
	}
	return reg
}

// NameKey returns the normalized comparison key for the record's name.
func (r *IncomingRecord) NameKey() string {
	return normalize.NameKey(r.Get(FieldName))
}

// EffectivePrefecture returns the record's prefecture, falling back to
// the prefecture its address begins with.
func (r *IncomingRecord) EffectivePrefecture() string {
	if p := normalize.ExtractPrefecture(r.Get(FieldPrefecture)); p != "" {
		return p
	}
	return normalize.ExtractPrefecture(r.Get(FieldAddress))
}
