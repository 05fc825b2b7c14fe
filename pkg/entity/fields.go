package entity

import "strconv"

// Canonical field names shared by IncomingRecord maps, the field
// registry, and store queries.
const (
	FieldID                   = "id"
	FieldName                 = "name"
	FieldNameEn               = "nameEn"
	FieldCorporateNumber      = "corporateNumber"
	FieldPrefecture           = "prefecture"
	FieldAddress              = "headquartersAddress"
	FieldPostalCode           = "postalCode"
	FieldPhone                = "phoneNumber"
	FieldFax                  = "faxNumber"
	FieldURL                  = "companyUrl"
	FieldEmail                = "contactEmail"
	FieldContactFormURL       = "contactFormUrl"
	FieldRepresentativeName   = "representativeName"
	FieldRepresentativeKana   = "representativeKana"
	FieldRepresentativeTitle  = "representativeTitle"
	FieldIndustryLarge        = "industryLarge"
	FieldIndustryMiddle       = "industryMiddle"
	FieldIndustrySmall        = "industrySmall"
	FieldIndustryDetail       = "industryDetail"
	FieldIndustryCategories   = "industryCategories"
	FieldBusinessDescriptions = "businessDescriptions"
	FieldClients              = "clients"
	FieldSuppliers            = "suppliers"
	FieldShareholders         = "shareholders"
	FieldExecutives           = "executives"
	FieldBanks                = "banks"
	FieldCompanyDescription   = "companyDescription"
	FieldSpecialNote          = "specialNote"
	FieldCapitalStock         = "capitalStock"
	FieldLatestRevenue        = "latestRevenue"
	FieldLatestProfit         = "latestProfit"
	FieldEmployeeCount        = "employeeCount"
	FieldTransactionType      = "transactionType"
)

// Kind classifies a field for merge-policy purposes.
type Kind int

const (
	// KindText is a scalar text field.
	KindText Kind = iota
	// KindLongText is free text where "keep the longer value" applies.
	KindLongText
	// KindList is a set-valued field merged by union.
	KindList
	// KindNumber is a numeric scalar carried as text in records.
	KindNumber
)

// FieldDef describes one mergeable field: its canonical name, kind, and
// typed accessors. List fields use GetList/SetList, everything else the
// string pair (numbers format through strconv).
type FieldDef struct {
	Name string
	Kind Kind

	GetString func(e *CanonicalEntity) string
	SetString func(e *CanonicalEntity, v string)
	GetList   func(e *CanonicalEntity) []string
	SetList   func(e *CanonicalEntity, v []string)
}

func textField(name string, kind Kind, get func(*CanonicalEntity) *string) FieldDef {
	return FieldDef{
		Name:      name,
		Kind:      kind,
		GetString: func(e *CanonicalEntity) string { return *get(e) },
		SetString: func(e *CanonicalEntity, v string) { *get(e) = v },
	}
}

func listField(name string, get func(*CanonicalEntity) *[]string) FieldDef {
	return FieldDef{
		Name:    name,
		Kind:    KindList,
		GetList: func(e *CanonicalEntity) []string { return *get(e) },
		SetList: func(e *CanonicalEntity, v []string) { *get(e) = v },
	}
}

func numberField(name string, get func(*CanonicalEntity) *int64) FieldDef {
	return FieldDef{
		Name: name,
		Kind: KindNumber,
		GetString: func(e *CanonicalEntity) string {
			if *get(e) == 0 {
				return ""
			}
			return strconv.FormatInt(*get(e), 10)
		},
		SetString: func(e *CanonicalEntity, v string) {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return
			}
			*get(e) = n
		},
	}
}

// fieldRegistry lists every mergeable field once. ID, CreatedAt, and
// UpdatedAt are lifecycle fields and deliberately absent.
var fieldRegistry = []FieldDef{
	textField(FieldName, KindText, func(e *CanonicalEntity) *string { return &e.Name }),
	textField(FieldNameEn, KindText, func(e *CanonicalEntity) *string { return &e.NameEn }),
	textField(FieldCorporateNumber, KindText, func(e *CanonicalEntity) *string { return &e.CorporateNumber }),
	textField(FieldPrefecture, KindText, func(e *CanonicalEntity) *string { return &e.Prefecture }),
	textField(FieldAddress, KindText, func(e *CanonicalEntity) *string { return &e.Address }),
	textField(FieldPostalCode, KindText, func(e *CanonicalEntity) *string { return &e.PostalCode }),
	textField(FieldPhone, KindText, func(e *CanonicalEntity) *string { return &e.Phone }),
	textField(FieldFax, KindText, func(e *CanonicalEntity) *string { return &e.Fax }),
	textField(FieldURL, KindText, func(e *CanonicalEntity) *string { return &e.URL }),
	textField(FieldEmail, KindText, func(e *CanonicalEntity) *string { return &e.Email }),
	textField(FieldContactFormURL, KindText, func(e *CanonicalEntity) *string { return &e.ContactFormURL }),
	textField(FieldRepresentativeName, KindText, func(e *CanonicalEntity) *string { return &e.RepresentativeName }),
	textField(FieldRepresentativeKana, KindText, func(e *CanonicalEntity) *string { return &e.RepresentativeKana }),
	textField(FieldRepresentativeTitle, KindText, func(e *CanonicalEntity) *string { return &e.RepresentativeTitle }),
	textField(FieldIndustryLarge, KindText, func(e *CanonicalEntity) *string { return &e.IndustryLarge }),
	textField(FieldIndustryMiddle, KindText, func(e *CanonicalEntity) *string { return &e.IndustryMiddle }),
	textField(FieldIndustrySmall, KindText, func(e *CanonicalEntity) *string { return &e.IndustrySmall }),
	textField(FieldIndustryDetail, KindText, func(e *CanonicalEntity) *string { return &e.IndustryDetail }),
	listField(FieldIndustryCategories, func(e *CanonicalEntity) *[]string { return &e.IndustryCategories }),
	listField(FieldBusinessDescriptions, func(e *CanonicalEntity) *[]string { return &e.BusinessDescriptions }),
	listField(FieldClients, func(e *CanonicalEntity) *[]string { return &e.Clients }),
	listField(FieldSuppliers, func(e *CanonicalEntity) *[]string { return &e.Suppliers }),
	listField(FieldShareholders, func(e *CanonicalEntity) *[]string { return &e.Shareholders }),
	listField(FieldExecutives, func(e *CanonicalEntity) *[]string { return &e.Executives }),
	listField(FieldBanks, func(e *CanonicalEntity) *[]string { return &e.Banks }),
	textField(FieldCompanyDescription, KindLongText, func(e *CanonicalEntity) *string { return &e.CompanyDescription }),
	textField(FieldSpecialNote, KindLongText, func(e *CanonicalEntity) *string { return &e.SpecialNote }),
	numberField(FieldCapitalStock, func(e *CanonicalEntity) *int64 { return &e.CapitalStock }),
	numberField(FieldLatestRevenue, func(e *CanonicalEntity) *int64 { return &e.LatestRevenue }),
	numberField(FieldLatestProfit, func(e *CanonicalEntity) *int64 { return &e.LatestProfit }),
	numberField(FieldEmployeeCount, func(e *CanonicalEntity) *int64 { return &e.EmployeeCount }),
	textField(FieldTransactionType, KindText, func(e *CanonicalEntity) *string { return &e.TransactionType }),
}

var fieldsByName = func() map[string]FieldDef {
	m := make(map[string]FieldDef, len(fieldRegistry))
	for _, f := range fieldRegistry {
		m[f.Name] = f
	}
	return m
}()

// Fields returns every mergeable field definition in registry order.
func Fields() []FieldDef { return fieldRegistry }

// FieldByName looks up a field definition by canonical name.
func FieldByName(name string) (FieldDef, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}
