// Package normalize canonicalizes the identifiers and free text that the
// matching pipeline compares: corporate registration numbers, postal codes,
// phone numbers, URLs, addresses, and company names. All functions are pure,
// total on any string input, and never guess: invalid input yields an
// explicit "no value" rather than a partially-normalized result.
package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// RegistrationLength is the number of digits in a Japanese corporate number.
const RegistrationLength = 13

var (
	legalEntityRe = regexp.MustCompile(`株式会社|有限会社|合同会社|合資会社|合名会社|一般社団法人|一般財団法人`)
	bracketRe     = regexp.MustCompile(`（[^）]*）|\([^)]*\)`)
	spaceRe       = regexp.MustCompile(`[\s　]+`)
	httpURLRe     = regexp.MustCompile(`https?://[A-Za-z0-9\-._~:/?#\[\]@!$&'()*+,;=%]+`)
	mapTailRe     = regexp.MustCompile(`(/地図|Google\s*マップで表示|Google\s*マップ).*$`)
	dateJPRe      = regexp.MustCompile(`^\d{4}年\d{1,2}月\d{1,2}日`)
	dateSlashRe   = regexp.MustCompile(`^\d{4}[/-]\d{1,2}[/-]\d{1,2}`)
)

// prefectures lists all 47 Japanese prefectures, longest names first where
// a shorter name is a prefix of none (the set is prefix-free as written).
var prefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県",
	"静岡県", "愛知県", "三重県", "滋賀県", "京都府", "大阪府", "兵庫県",
	"奈良県", "和歌山県", "鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県", "福岡県", "佐賀県", "長崎県",
	"熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

// Registration canonicalizes a corporate registration number. It returns
// the 13-digit string and true only when the input is a credible number:
// full-width digits are folded, a 12-digit value is left-padded with "0"
// (spreadsheet exports drop the check digit's leading zero), and anything
// containing a non-digit rune (separators, exponent notation like
// "2.01E+12", stray text) is rejected outright. Dummy placeholder values
// (nine or more trailing zeros, or a single repeated digit) are rejected
// even when syntactically well-formed.
func Registration(s string) (string, bool) {
	s = strings.TrimSpace(width.Fold.String(s))
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if len(s) == RegistrationLength-1 {
		s = "0" + s
	}
	if len(s) != RegistrationLength {
		return "", false
	}
	if IsDummyRegistration(s) {
		return "", false
	}
	return s, true
}

// IsDummyRegistration reports whether a 13-digit string is a placeholder
// rather than a real registration number. Placeholders must never be used
// as matching keys.
func IsDummyRegistration(digits string) bool {
	if len(digits) != RegistrationLength {
		return false
	}
	trailing := 0
	for i := len(digits) - 1; i >= 0 && digits[i] == '0'; i-- {
		trailing++
	}
	if trailing >= 9 {
		return true
	}
	same := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			same = false
			break
		}
	}
	return same
}

// Text canonicalizes free text for equality and containment comparison:
// NFKC compatibility normalization, full-width to half-width folding,
// bracket-enclosed asides removed, anything after a colon dropped, and
// whitespace collapsed to single spaces.
func Text(s string) string {
	s = norm.NFKC.String(s)
	s = width.Fold.String(s)
	s = bracketRe.ReplaceAllString(s, "")
	if i := strings.IndexAny(s, ":："); i >= 0 {
		s = s[:i]
	}
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Key produces a comparison key from free text: Text normalization, then
// all whitespace removed and letters uppercased. Keys are what the
// taxonomy index and candidate locator compare.
func Key(s string) string {
	s = Text(s)
	s = spaceRe.ReplaceAllString(s, "")
	return strings.ToUpper(s)
}

// NameKey produces a comparison key for a company name: Key normalization
// with legal-entity designators (株式会社 and friends) stripped, so
// "株式会社テスト" and "テスト（株式会社)" compare equal.
func NameKey(s string) string {
	s = Key(s)
	return legalEntityRe.ReplaceAllString(s, "")
}

// Digits strips everything but ASCII digits after width folding.
func Digits(s string) string {
	s = width.Fold.String(s)
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PostalCode canonicalizes a Japanese postal code to "NNN-NNNN". Valid iff
// the input contains exactly 7 digits; 13-digit inputs are registration
// numbers mis-filed into the postal column and are never postal codes.
func PostalCode(s string) (string, bool) {
	d := Digits(s)
	if len(d) != 7 {
		return "", false
	}
	return d[:3] + "-" + d[3:], true
}

// Phone produces a digits-only comparison key for a phone number. Inputs
// that look like dates or addresses (symptoms of column misalignment in
// the source CSVs) yield no value, as do strings with fewer than 9 digits.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(width.Fold.String(s))
	if s == "" {
		return "", false
	}
	if dateJPRe.MatchString(s) || dateSlashRe.MatchString(s) {
		return "", false
	}
	if strings.ContainsAny(s, "都道府県市区町村") {
		return "", false
	}
	d := Digits(s)
	if len(d) < 9 {
		return "", false
	}
	return d, true
}

// PhoneMatch reports whether two phone keys identify the same line: equal,
// or one a suffix of the other (area-code prefixes come and go between
// sources).
func PhoneMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.HasSuffix(a, b) || strings.HasSuffix(b, a)
}

// URLHost extracts a scheme-insensitive, lowercased hostname with any
// leading "www." removed. "example.co.jp/about" and
// "https://WWW.example.co.jp" both yield "example.co.jp".
func URLHost(s string) (string, bool) {
	s = strings.TrimSpace(width.Fold.String(s))
	if s == "" {
		return "", false
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if !strings.Contains(host, ".") {
		return "", false
	}
	return host, true
}

// CleanURL extracts the first http(s) URL embedded in scraped text, which
// routinely arrives with link labels and surrounding prose attached.
func CleanURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := httpURLRe.FindString(s); m != "" {
		return m
	}
	return s
}

// CleanAddress strips map-widget artifacts ("/地図", "Googleマップで表示")
// that scraped address fields carry, and collapses whitespace.
func CleanAddress(s string) string {
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	if s == "" {
		return ""
	}
	s = mapTailRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// ExtractPrefecture returns the prefecture an address starts with, or ""
// when the address does not begin with one.
func ExtractPrefecture(address string) string {
	address = strings.TrimSpace(address)
	for _, p := range prefectures {
		if strings.HasPrefix(address, p) {
			return p
		}
	}
	return ""
}

// IsPrefecture reports whether s is exactly one of the 47 prefectures.
func IsPrefecture(s string) bool {
	s = strings.TrimSpace(s)
	for _, p := range prefectures {
		if s == p {
			return true
		}
	}
	return false
}

// IsBlank reports whether a field value carries no information: empty,
// whitespace-only, or one of the placeholder spellings that unparsed JSON
// and spreadsheet exports leave behind.
func IsBlank(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "null", "undefined", "nan", "none", "-", "ー", "—":
		return true
	}
	return false
}
