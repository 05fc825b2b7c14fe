package layout

import (
	"regexp"
	"strings"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/normalize"
)

// scrapedKeys maps the flat keys a scraping collaborator emits to
// canonical field names.
var scrapedKeys = map[string]string{
	"company_name":     entity.FieldName,
	"company_url":      entity.FieldURL,
	"contact_form_url": entity.FieldContactFormURL,
	"address":          entity.FieldAddress,
	"postal_code":      entity.FieldPostalCode,
	"phone_number":     entity.FieldPhone,
	"representative":   entity.FieldRepresentativeName,
	"description":      entity.FieldCompanyDescription,
	"corporate_number": entity.FieldCorporateNumber,
}

// repTitleRe strips the title prefix scraped representative names carry
// ("代表取締役 山田太郎").
var repTitleRe = regexp.MustCompile(`^(代表者|代表取締役|社長|取締役|監査役|執行役員|役員)[：:\s]*`)

// MapScraped converts a scraping collaborator's flat field map into an
// incoming record, applying the scraped-field cleanup: URL extraction
// from mixed text, map-widget tails off addresses, representative title
// prefixes off names. Unknown keys are ignored.
func MapScraped(fields map[string]string) *entity.IncomingRecord {
	rec := entity.NewRecord(entity.SourceScraped)
	for key, value := range fields {
		field, ok := scrapedKeys[key]
		if !ok || normalize.IsBlank(value) {
			continue
		}
		switch field {
		case entity.FieldURL, entity.FieldContactFormURL:
			value = normalize.CleanURL(value)
			// a "URL" that still has no scheme after extraction is
			// link-label noise, not a URL
			if !strings.Contains(value, "://") {
				continue
			}
		case entity.FieldAddress:
			value = normalize.CleanAddress(value)
		case entity.FieldRepresentativeName:
			value = strings.TrimSpace(repTitleRe.ReplaceAllString(value, ""))
		}
		rec.Set(field, value)
	}
	return rec
}
