package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
)

func TestDetectBasic(t *testing.T) {
	m, err := Detect([]string{"企業名", "法人番号", "都道府県", "住所", "電話番号"})
	require.NoError(t, err)
	assert.Equal(t, VariantCompanyBasic, m.Variant)
}

func TestDetectDetail(t *testing.T) {
	m, err := Detect([]string{"会社名", "法人番号", "業種1", "業種2", "業種3", "業種4"})
	require.NoError(t, err)
	assert.Equal(t, VariantCompanyDetail, m.Variant)
}

func TestDetectTransaction(t *testing.T) {
	m, err := Detect([]string{"企業名", "法人番号", "取引種別", "都道府県"})
	require.NoError(t, err)
	assert.Equal(t, VariantTransaction, m.Variant)
}

func TestDetectHeaderNormalization(t *testing.T) {
	// full-width brackets and embedded whitespace fold away
	m, err := Detect([]string{"\uFEFF会社名", "電話番号（窓口）", "業種（大）"})
	require.NoError(t, err)
	assert.Equal(t, VariantCompanyDetail, m.Variant)
}

func TestDetectUnknownLayout(t *testing.T) {
	_, err := Detect([]string{"foo", "bar"})
	assert.Error(t, err)

	// transaction column without a registration number column
	_, err = Detect([]string{"企業名", "取引種別"})
	assert.Error(t, err)
}

func TestMapRowBasic(t *testing.T) {
	m, err := Detect([]string{"企業名", "法人番号", "都道府県", "住所", "取引銀行", "資本金"})
	require.NoError(t, err)

	rec := m.MapRow([]string{"株式会社テスト", "1234567890123", "東京都", "東京都港区1-2-3/地図", "A銀行、B銀行", "1,000万円"})
	assert.Equal(t, entity.SourceCSVCompany, rec.Source)
	assert.Equal(t, "株式会社テスト", rec.Get(entity.FieldName))
	assert.Equal(t, "1234567890123", rec.Registration())
	assert.Equal(t, "東京都港区1-2-3", rec.Get(entity.FieldAddress), "map-widget tail removed")
	assert.Equal(t, []string{"A銀行", "B銀行"}, rec.Lists[entity.FieldBanks])
	assert.Equal(t, "1000", rec.Get(entity.FieldCapitalStock))
}

func TestMapRowShortRow(t *testing.T) {
	m, err := Detect([]string{"企業名", "法人番号", "都道府県"})
	require.NoError(t, err)

	rec := m.MapRow([]string{"株式会社テスト"})
	assert.Equal(t, "株式会社テスト", rec.Get(entity.FieldName))
	assert.False(t, rec.Has(entity.FieldPrefecture))
}

func TestMapRowTransactionTrustsNothingElse(t *testing.T) {
	m, err := Detect([]string{"企業名", "法人番号", "取引種別", "都道府県"})
	require.NoError(t, err)

	rec := m.MapRow([]string{"信用しない名前", "1234567890123", "譲受企業", "東京都"})
	assert.Equal(t, entity.SourceCSVTransaction, rec.Source)
	assert.Equal(t, "譲受企業", rec.Get(entity.FieldTransactionType))
	assert.Equal(t, "1234567890123", rec.Get(entity.FieldCorporateNumber))
	assert.False(t, rec.Has(entity.FieldName))
	assert.False(t, rec.Has(entity.FieldPrefecture))
}

func TestMapRowTransactionIgnoresOtherKinds(t *testing.T) {
	m, err := Detect([]string{"法人番号", "取引種別"})
	require.NoError(t, err)

	rec := m.MapRow([]string{"1234567890123", "その他"})
	assert.False(t, rec.Has(entity.FieldTransactionType))
}

func TestRead(t *testing.T) {
	src := strings.Join([]string{
		"企業名,法人番号,都道府県",
		"株式会社A,1234567890123,東京都",
		"株式会社B,,大阪府",
	}, "\n")

	records, mapper, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, VariantCompanyBasic, mapper.Variant)
	require.Len(t, records, 2)
	assert.Equal(t, "株式会社A", records[0].Get(entity.FieldName))
	assert.False(t, records[1].Has(entity.FieldCorporateNumber))
}

func TestReadEmpty(t *testing.T) {
	_, _, err := Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestMapScraped(t *testing.T) {
	rec := MapScraped(map[string]string{
		"company_url":    "公式サイトはこちら https://example.co.jp/company",
		"address":        "東京都港区1-2-3 Googleマップで表示",
		"representative": "代表取締役 山田太郎",
		"phone_number":   "03-1234-5678",
		"unknown_key":    "ignored",
	})

	assert.Equal(t, entity.SourceScraped, rec.Source)
	assert.Equal(t, "https://example.co.jp/company", rec.Get(entity.FieldURL))
	assert.Equal(t, "東京都港区1-2-3", rec.Get(entity.FieldAddress))
	assert.Equal(t, "山田太郎", rec.Get(entity.FieldRepresentativeName))
	assert.Equal(t, "03-1234-5678", rec.Get(entity.FieldPhone))
}

func TestMapScrapedRejectsNonURL(t *testing.T) {
	rec := MapScraped(map[string]string{"company_url": "ホームページはありません"})
	assert.False(t, rec.Has(entity.FieldURL))
}
