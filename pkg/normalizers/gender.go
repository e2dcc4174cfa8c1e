package normalizers

import (
	"strings"
	"unicode"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// genderSynonyms maps English abbreviations and Hindi terms to the canonical
// gender values.
var genderSynonyms = map[string]string{
	"m":      GenderMale,
	"male":   GenderMale,
	"man":    GenderMale,
	"boy":    GenderMale,
	"mr":     GenderMale,
	"पुरुष":  GenderMale,
	"पु":     GenderMale,
	"purush": GenderMale,

	"f":      GenderFemale,
	"female": GenderFemale,
	"woman":  GenderFemale,
	"girl":   GenderFemale,
	"mrs":    GenderFemale,
	"ms":     GenderFemale,
	"महिला":  GenderFemale,
	"स्त्री": GenderFemale,
	"mahila": GenderFemale,

	"other":       GenderOther,
	"others":      GenderOther,
	"nb":          GenderOther,
	"non-binary":  GenderOther,
	"nonbinary":   GenderOther,
	"transgender": GenderOther,
	"t":           GenderOther,
	"tg":          GenderOther,
	"अन्य":        GenderOther,
	"ट्रांसजेंडर": GenderOther,
}

// NormalizeGender maps a gender label in any supported language to male,
// female or other. Unknown labels normalize to "".
//
// Bilingual labels such as "पुरुष / MALE" resolve on their first known token.
func NormalizeGender(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if g, ok := genderSynonyms[s]; ok {
		return g
	}
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsMark(r) || r == '-')
	})
	for _, tok := range tokens {
		if g, ok := genderSynonyms[tok]; ok {
			return g
		}
	}
	return ""
}
