// Package layout maps raw source rows onto canonical incoming records.
// It is the collaborator side of the pipeline boundary: the closed set
// of CSV layout variants and the scraped-field mapper live here, so the
// core never dispatches on header strings.
package layout

import (
	"regexp"
	"strings"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/normalize"
)

// Variant names one known CSV column layout. The set is closed; a header
// matching none of them is a detection error, never a guess.
type Variant string

const (
	// VariantCompanyBasic is the common company export: name and
	// registration number plus contact columns.
	VariantCompanyBasic Variant = "company_basic"
	// VariantCompanyDetail extends the basic layout with the four-level
	// industry columns.
	VariantCompanyDetail Variant = "company_detail"
	// VariantTransaction carries a registration number and a transaction
	// type; nothing else from it is trusted.
	VariantTransaction Variant = "transaction"
)

// headerAliases maps canonical field names to the header spellings seen
// across the source exports. Alias order is priority order.
var headerAliases = map[string][]string{
	entity.FieldName:               {"会社名", "企業名", "商号又は名称", "法人名"},
	entity.FieldCorporateNumber:    {"法人番号", "corporateNumber"},
	entity.FieldPhone:              {"電話番号(窓口)", "電話番号", "TEL", "代表電話"},
	entity.FieldPrefecture:         {"都道府県", "県"},
	entity.FieldAddress:            {"住所", "所在地", "本社住所", "会社住所"},
	entity.FieldPostalCode:         {"郵便番号", "会社郵便番号"},
	entity.FieldRepresentativeName: {"代表者名", "代表者", "代表"},
	entity.FieldCapitalStock:       {"資本金"},
	entity.FieldLatestRevenue:      {"売上高", "売上", "直近売上"},
	entity.FieldLatestProfit:       {"直近利益"},
	entity.FieldURL:                {"URL", "企業ホームページURL", "HP"},
	entity.FieldEmployeeCount:      {"社員数", "従業員数", "従業員"},
	entity.FieldIndustryLarge:      {"業種1", "業種(大)", "業種-大"},
	entity.FieldIndustryMiddle:     {"業種2", "業種(中)", "業種-中"},
	entity.FieldIndustrySmall:      {"業種3", "業種(小)", "業種-小"},
	entity.FieldIndustryDetail:     {"業種4", "業種(細)", "業種-細"},
	entity.FieldCompanyDescription: {"概要", "概況", "説明", "企業概要"},
	entity.FieldTransactionType:    {"取引種別"},
	entity.FieldBanks:              {"取引銀行", "メインバンク"},
	entity.FieldClients:            {"販売先", "取引先"},
	entity.FieldSuppliers:          {"仕入先"},
	entity.FieldShareholders:       {"株主"},
}

// listFields are mapped as delimited lists rather than scalars.
var listFields = map[string]bool{
	entity.FieldBanks:        true,
	entity.FieldClients:      true,
	entity.FieldSuppliers:    true,
	entity.FieldShareholders: true,
}

var listSplitRe = regexp.MustCompile(`[、,/・;]`)

// normalizeHeader folds the header spellings: width, brackets,
// whitespace, BOM.
func normalizeHeader(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "　", " ")
	s = strings.ReplaceAll(s, "（", "(")
	s = strings.ReplaceAll(s, "）", ")")
	return strings.Join(strings.Fields(s), "")
}

// Mapper turns rows of one detected CSV layout into incoming records.
type Mapper struct {
	Variant Variant
	source  entity.Source
	// columns maps canonical field name to column index.
	columns map[string]int
}

// Detect resolves a header row against the known layouts. The variant
// choice is deterministic: a transaction-type column wins, then the
// industry columns mark the detail layout, then the basic layout needs
// at least a name column. Anything else is an error.
func Detect(header []string) (*Mapper, error) {
	normToIdx := make(map[string]int, len(header))
	for i, h := range header {
		normToIdx[normalizeHeader(h)] = i
	}

	columns := make(map[string]int)
	for field, aliases := range headerAliases {
		for _, alias := range aliases {
			if idx, ok := normToIdx[normalizeHeader(alias)]; ok {
				columns[field] = idx
				break
			}
		}
	}

	m := &Mapper{columns: columns}
	switch {
	case has(columns, entity.FieldTransactionType):
		if !has(columns, entity.FieldCorporateNumber) {
			return nil, errors.NewParseError("csv", "", "transaction layout without a registration number column", nil)
		}
		m.Variant = VariantTransaction
		m.source = entity.SourceCSVTransaction
		// the transaction pipeline trusts nothing else from the row
		m.columns = map[string]int{
			entity.FieldCorporateNumber: columns[entity.FieldCorporateNumber],
			entity.FieldTransactionType: columns[entity.FieldTransactionType],
		}
	case has(columns, entity.FieldIndustryLarge):
		if !has(columns, entity.FieldName) {
			return nil, errors.NewParseError("csv", "", "industry layout without a company name column", nil)
		}
		m.Variant = VariantCompanyDetail
		m.source = entity.SourceCSVCompany
	case has(columns, entity.FieldName):
		m.Variant = VariantCompanyBasic
		m.source = entity.SourceCSVCompany
	default:
		return nil, errors.NewParseError("csv", "", "header matches no known layout", nil)
	}
	return m, nil
}

func has(columns map[string]int, field string) bool {
	_, ok := columns[field]
	return ok
}

// MapRow converts one data row. Malformed cells drop to "no value";
// mapping never fails per row.
func (m *Mapper) MapRow(row []string) *entity.IncomingRecord {
	rec := entity.NewRecord(m.source)
	for field, idx := range m.columns {
		if idx >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[idx])
		if normalize.IsBlank(value) {
			continue
		}
		if listFields[field] {
			for _, v := range listSplitRe.Split(value, -1) {
				rec.Add(field, strings.TrimSpace(v))
			}
			continue
		}
		rec.Set(field, cleanCell(field, value))
	}
	return rec
}

// cleanCell applies field-specific cleanup before a value enters the
// core.
func cleanCell(field, value string) string {
	switch field {
	case entity.FieldAddress:
		return normalize.CleanAddress(value)
	case entity.FieldURL:
		return normalize.CleanURL(value)
	case entity.FieldCapitalStock, entity.FieldLatestRevenue, entity.FieldLatestProfit, entity.FieldEmployeeCount:
		return normalize.Digits(value)
	case entity.FieldTransactionType:
		// only the two real transaction kinds update anything
		if value != "譲受企業" && value != "譲渡企業" {
			return ""
		}
		return value
	default:
		return value
	}
}
