// Package entity defines the canonical company record, the incoming
// record shape every source layout maps into, and the field registry the
// merge engine drives its per-field policy through.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/normalize"
)

// CanonicalEntity is the store's unit of truth for one company. Field
// names follow the upstream document schema, so entities round-trip
// through the document store without translation.
type CanonicalEntity struct {
	// ID is the stable identifier. Once a validated 13-digit
	// registration number is known it is permanent; otherwise a
	// generated surrogate.
	ID string `json:"id"`

	Name            string `json:"name"`
	NameEn          string `json:"nameEn,omitempty"`
	CorporateNumber string `json:"corporateNumber,omitempty"`

	Prefecture string `json:"prefecture,omitempty"`
	Address    string `json:"headquartersAddress,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`

	Phone          string `json:"phoneNumber,omitempty"`
	Fax            string `json:"faxNumber,omitempty"`
	URL            string `json:"companyUrl,omitempty"`
	Email          string `json:"contactEmail,omitempty"`
	ContactFormURL string `json:"contactFormUrl,omitempty"`

	RepresentativeName  string `json:"representativeName,omitempty"`
	RepresentativeKana  string `json:"representativeKana,omitempty"`
	RepresentativeTitle string `json:"representativeTitle,omitempty"`

	IndustryLarge  string `json:"industryLarge,omitempty"`
	IndustryMiddle string `json:"industryMiddle,omitempty"`
	IndustrySmall  string `json:"industrySmall,omitempty"`
	IndustryDetail string `json:"industryDetail,omitempty"`

	IndustryCategories   []string `json:"industryCategories,omitempty"`
	BusinessDescriptions []string `json:"businessDescriptions,omitempty"`
	Clients              []string `json:"clients,omitempty"`
	Suppliers            []string `json:"suppliers,omitempty"`
	Shareholders         []string `json:"shareholders,omitempty"`
	Executives           []string `json:"executives,omitempty"`
	Banks                []string `json:"banks,omitempty"`

	CompanyDescription string `json:"companyDescription,omitempty"`
	SpecialNote        string `json:"specialNote,omitempty"`

	CapitalStock  int64 `json:"capitalStock,omitempty"`
	LatestRevenue int64 `json:"latestRevenue,omitempty"`
	LatestProfit  int64 `json:"latestProfit,omitempty"`
	EmployeeCount int64 `json:"employeeCount,omitempty"`

	TransactionType string `json:"transactionType,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// NewID returns an identifier for an entity. Given a validated
// registration number it is used directly; otherwise a surrogate UUID
// is generated.
func NewID(registration string) string {
	if reg, ok := normalize.Registration(registration); ok {
		return reg
	}
	return uuid.NewString()
}

// HasValidRegistration reports whether the entity carries a validated,
// non-dummy 13-digit registration number. Entities without one are the
// only kind eligible for identifier-less matching.
func (e *CanonicalEntity) HasValidRegistration() bool {
	_, ok := normalize.Registration(e.CorporateNumber)
	return ok
}

// Registration returns the validated registration number, or "".
func (e *CanonicalEntity) Registration() string {
	reg, ok := normalize.Registration(e.CorporateNumber)
	if !ok {
		return ""
	}
	return reg
}

// NameKey returns the normalized comparison key for the entity's name.
func (e *CanonicalEntity) NameKey() string {
	return normalize.NameKey(e.Name)
}

// EffectivePrefecture returns the prefecture field, falling back to the
// prefecture the address begins with.
func (e *CanonicalEntity) EffectivePrefecture() string {
	if p := normalize.ExtractPrefecture(e.Prefecture); p != "" {
		return p
	}
	return normalize.ExtractPrefecture(e.Address)
}

// Clone returns a deep copy. List fields are copied, not shared.
func (e *CanonicalEntity) Clone() *CanonicalEntity {
	c := *e
	c.IndustryCategories = cloneList(e.IndustryCategories)
	c.BusinessDescriptions = cloneList(e.BusinessDescriptions)
	c.Clients = cloneList(e.Clients)
	c.Suppliers = cloneList(e.Suppliers)
	c.Shareholders = cloneList(e.Shareholders)
	c.Executives = cloneList(e.Executives)
	c.Banks = cloneList(e.Banks)
	return &c
}

func cloneList(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
