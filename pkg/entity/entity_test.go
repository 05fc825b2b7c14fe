package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	assert.Equal(t, "1234567890123", NewID("1234567890123"))
	assert.Equal(t, "0123456789012", NewID("123456789012"))

	// dummy and invalid numbers get surrogates
	a := NewID("9180000000000")
	b := NewID("")
	assert.NotEmpty(t, a)
	assert.NotEmpty(t, b)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestHasValidRegistration(t *testing.T) {
	assert.True(t, (&CanonicalEntity{CorporateNumber: "1234567890123"}).HasValidRegistration())
	assert.False(t, (&CanonicalEntity{CorporateNumber: "9180000000000"}).HasValidRegistration())
	assert.False(t, (&CanonicalEntity{}).HasValidRegistration())
	assert.Equal(t, "", (&CanonicalEntity{CorporateNumber: "2.01E+12"}).Registration())
}

func TestEffectivePrefecture(t *testing.T) {
	e := &CanonicalEntity{Prefecture: "東京都"}
	assert.Equal(t, "東京都", e.EffectivePrefecture())

	e = &CanonicalEntity{Address: "大阪府大阪市北区1-2-3"}
	assert.Equal(t, "大阪府", e.EffectivePrefecture())

	assert.Equal(t, "", (&CanonicalEntity{}).EffectivePrefecture())
}

func TestClone(t *testing.T) {
	e := &CanonicalEntity{
		ID:    "x",
		Banks: []string{"A銀行"},
	}
	c := e.Clone()
	c.Banks[0] = "B銀行"
	c.Name = "changed"
	assert.Equal(t, "A銀行", e.Banks[0])
	assert.Empty(t, e.Name)
}

func TestFieldRegistry(t *testing.T) {
	names := map[string]bool{}
	for _, f := range Fields() {
		assert.False(t, names[f.Name], "duplicate field %s", f.Name)
		names[f.Name] = true
		if f.Kind == KindList {
			require.NotNil(t, f.GetList, f.Name)
			require.NotNil(t, f.SetList, f.Name)
		} else {
			require.NotNil(t, f.GetString, f.Name)
			require.NotNil(t, f.SetString, f.Name)
		}
	}
	// lifecycle fields are not mergeable
	assert.False(t, names[FieldID])
	assert.True(t, names[FieldName])
	assert.True(t, names[FieldBanks])
}

func TestFieldAccessors(t *testing.T) {
	e := &CanonicalEntity{}

	name, ok := FieldByName(FieldName)
	require.True(t, ok)
	name.SetString(e, "株式会社テスト")
	assert.Equal(t, "株式会社テスト", e.Name)
	assert.Equal(t, "株式会社テスト", name.GetString(e))

	banks, ok := FieldByName(FieldBanks)
	require.True(t, ok)
	banks.SetList(e, []string{"A銀行"})
	assert.Equal(t, []string{"A銀行"}, e.Banks)

	capital, ok := FieldByName(FieldCapitalStock)
	require.True(t, ok)
	assert.Equal(t, "", capital.GetString(e), "zero reads back as empty")
	capital.SetString(e, "10000000")
	assert.Equal(t, int64(10000000), e.CapitalStock)
	assert.Equal(t, "10000000", capital.GetString(e))
	capital.SetString(e, "not a number") // ignored
	assert.Equal(t, int64(10000000), e.CapitalStock)
}

func TestIncomingRecord(t *testing.T) {
	r := NewRecord(SourceCSVCompany)
	r.Set(FieldName, "株式会社テスト")
	r.Set(FieldPrefecture, "null") // placeholder dropped
	r.Add(FieldBanks, "A銀行")
	r.Add(FieldBanks, "")

	assert.True(t, r.Has(FieldName))
	assert.False(t, r.Has(FieldPrefecture))
	assert.True(t, r.Has(FieldBanks))
	assert.Len(t, r.Lists[FieldBanks], 1)

	r.Set(FieldCorporateNumber, "123456789012")
	assert.Equal(t, "0123456789012", r.Registration())

	r.Set(FieldAddress, "北海道札幌市中央区")
	assert.Equal(t, "北海道", r.EffectivePrefecture())

	assert.Equal(t, "テスト", r.NameKey())
}
