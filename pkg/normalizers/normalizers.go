// Package normalizers canonicalizes raw field values so that values read off a
// document and values typed by an applicant can be compared directly.
//
// Every normalizer is pure and total: unparsable input yields "" and applying
// a normalizer to its own output returns the same value.
package normalizers

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/mozillazg/go-unidecode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// Options tune the field normalizers
type Options struct {
	DateOrder DateOrder
}

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	// Field normalizers
	Register(fields.Name, NormalizeName)
	Register(fields.Surname, NormalizeName)
	Register(fields.Address, NormalizeAddress)
	Register(fields.City, NormalizeText)
	Register(fields.State, NormalizeText)
	Register(fields.Phone, NormalizePhone)
	Register(fields.Email, NormalizeEmail)
	Register(fields.Pincode, NormalizePincode)
	Register(fields.Gender, NormalizeGender)
	Register(fields.Age, NormalizeAge)
	Register(fields.DOB, NormalizeDOB)

	// Building blocks
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("digits_only", DigitsOnly)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("text", NormalizeText)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// ForField returns the normalizer used for field. Fields without a dedicated
// normalizer fall back to NormalizeText.
func ForField(field string, opts Options) Normalizer {
	if field == fields.DOB {
		return DateNormalizer(opts.DateOrder)
	}
	if fn, ok := registry[field]; ok {
		return fn
	}
	return NormalizeText
}

// Normalize canonicalizes value for field using default options.
func Normalize(field, value string) string {
	return ForField(field, Options{})(value)
}

// NormalizeWith canonicalizes value for field using opts.
func NormalizeWith(field, value string, opts Options) string {
	return ForField(field, opts)(value)
}

// NormalizeRecord normalizes every value of record, dropping fields whose
// canonical value is empty.
func NormalizeRecord(record map[string]string, opts Options) map[string]string {
	out := make(map[string]string, len(record))
	for field, value := range record {
		if canonical := NormalizeWith(field, value, opts); canonical != "" {
			out[field] = canonical
		}
	}
	return out
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// CollapseWhitespace trims s and replaces internal whitespace runs with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DigitsOnly keeps only digit characters, folding non-ASCII decimal digits
// (Devanagari, Arabic-Indic, fullwidth) to ASCII.
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if d, ok := asciiDigit(r); ok {
			result.WriteByte(d)
		}
	}
	return result.String()
}

// DigitsToASCII folds non-ASCII decimal digits in s to ASCII, leaving every
// other rune untouched.
func DigitsToASCII(s string) string {
	var result strings.Builder
	for _, r := range s {
		if r > unicode.MaxASCII {
			if d, ok := asciiDigit(r); ok {
				result.WriteByte(d)
				continue
			}
		}
		result.WriteRune(r)
	}
	return result.String()
}

func asciiDigit(r rune) (byte, bool) {
	if r >= '0' && r <= '9' {
		return byte(r), true
	}
	if !unicode.IsDigit(r) {
		return 0, false
	}
	folded := unidecode.Unidecode(string(r))
	if len(folded) == 1 && folded[0] >= '0' && folded[0] <= '9' {
		return folded[0], true
	}
	return 0, false
}

// NormalizePhone reduces a phone number to its national significant number:
// digits only, last 10 digits.
func NormalizePhone(s string) string {
	digits := DigitsOnly(s)
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

// emailTypos corrects common misspellings of mail provider domains.
var emailTypos = map[string]string{
	"gmial.com":   "gmail.com",
	"gamil.com":   "gmail.com",
	"gmai.com":    "gmail.com",
	"gmail.con":   "gmail.com",
	"gmail.co":    "gmail.com",
	"yahoo.co":    "yahoo.com",
	"yaho.com":    "yahoo.com",
	"hotmial.com": "hotmail.com",
	"hotmail.con": "hotmail.com",
	"outlok.com":  "outlook.com",
}

// NormalizeEmail lowercases and trims an email address, removes stray
// whitespace and corrects well-known domain typos.
func NormalizeEmail(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return s
	}
	local, domain := s[:at], s[at+1:]
	if fixed, ok := emailTypos[domain]; ok {
		domain = fixed
	}
	return local + "@" + domain
}

// NormalizePincode keeps at most the first 6 digits of a postal index number
func NormalizePincode(s string) string {
	digits := DigitsOnly(s)
	if len(digits) > 6 {
		digits = digits[:6]
	}
	return digits
}

// NormalizeAge returns the first integer found in s without leading zeros
func NormalizeAge(s string) string {
	s = DigitsToASCII(s)
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return ""
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end-start > 3 {
		return ""
	}
	age, err := strconv.Atoi(s[start:end])
	if err != nil {
		return ""
	}
	return strconv.Itoa(age)
}
