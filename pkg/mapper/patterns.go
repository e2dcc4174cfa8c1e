package mapper

import (
	"fmt"
	"regexp"

	"github.com/Ramsey-B/iris/pkg/fields"
)

// Pattern building blocks. Every pattern captures the field value in group 1.
const (
	lineStart  = `(?im)^[ \t]*`
	sep        = `[ \t]*[:|\-–][ \t]*`
	optSep     = `[ \t]*[:|\-–]?[ \t]*`
	restOfLine = `([^\n]+)`
	bareValue  = `[ \t]+([^\n:]+)$`
)

// DefaultPatterns holds, per field, the ordered patterns tried against the raw
// text. The first pattern that matches wins. English and Hindi (Devanagari)
// labels are covered; new scripts are added here as data.
var DefaultPatterns = map[string][]string{
	fields.Name: {
		lineStart + `(?:नाम[ \t]*/[ \t]*)?(?:full[ \t]+name|first[ \t]+name|applicant(?:'s)?[ \t]+name|name)` + sep + restOfLine,
		lineStart + `नाम` + optSep + `([^\n:]+)`,
		lineStart + `(?:full[ \t]+name|name)` + bareValue,
	},
	fields.DOB: {
		lineStart + `(?:जन्म[ \t]*(?:तिथि|तारीख)[ \t]*/[ \t]*)?(?:d\.?[ \t]?o\.?[ \t]?b\.?|date[ \t]+of[ \t]+birth|birth[ \t]+date)` + optSep + `([^\n]*\d[^\n]*)`,
		lineStart + `जन्म[ \t]*(?:तिथि|तारीख)` + optSep + `([^\n]*\d[^\n]*)`,
	},
	fields.Age: {
		lineStart + `(?:age|आयु|उम्र)` + optSep + `(\d{1,3})(?:[^\d]|$)`,
	},
	fields.Gender: {
		lineStart + `(?:लिंग[ \t]*/[ \t]*)?(?:gender|sex)` + optSep + restOfLine,
		lineStart + `लिंग` + optSep + restOfLine,
		`(?i)(?:पुरुष|महिला|अन्य)[ \t]*/[ \t]*(male|female|transgender|other)`,
		lineStart + `(male|female|पुरुष|महिला)[ \t]*$`,
	},
	fields.Address: {
		lineStart + `(?:पता[ \t]*/[ \t]*)?(?:residential[ \t]+address|permanent[ \t]+address|present[ \t]+address|address|addr\.?)` + sep + restOfLine,
		lineStart + `पता` + optSep + restOfLine,
		lineStart + `(?:address|addr\.?)` + bareValue,
	},
	fields.Phone: {
		lineStart + `(?:phone|mobile|mob|contact|tel|telephone|cell)(?:[ \t]*(?:no\.?|number))?` + optSep + `(\+?\(?\d[\d \t\-().]{5,}\d)`,
		lineStart + `(?:मोबाइल|फ़ोन|फोन)(?:[ \t]*(?:नंबर|नं\.?))?` + optSep + `(\+?\(?\d[\d \t\-().]{5,}\d)`,
		`(?m)(?:^|[^\d])((?:\+91[ \-]?)?[6-9]\d{4}[ \-]?\d{5})(?:[^\d]|$)`,
	},
	fields.Email: {
		`(?i)(?:\be-?mail(?:[ \t]*(?:id|address))?|ईमेल)` + optSep + `([a-z0-9._%+\-]+[ \t]*@[ \t]*[a-z0-9.\-]+\.[a-z]{2,})`,
		`(?i)([a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,})`,
	},
	fields.Pincode: {
		`(?i)(?:\b(?:pin[ \t]*code|pin|postal[ \t]+code|zip(?:[ \t]*code)?)|पिन(?:[ \t]*कोड)?)` + optSep + `(\d{3}[ \t]?\d{3})(?:[^\d]|$)`,
	},
	fields.City: {
		lineStart + `(?:city|town|शहर)` + sep + restOfLine,
	},
	fields.State: {
		lineStart + `(?:state|राज्य)` + sep + restOfLine,
	},
}

// PatternSet maps a field to its compiled, ordered patterns.
type PatternSet map[string][]*regexp.Regexp

// CompilePatterns compiles a pattern table.
func CompilePatterns(table map[string][]string) (PatternSet, error) {
	set := make(PatternSet, len(table))
	for field, sources := range table {
		compiled := make([]*regexp.Regexp, 0, len(sources))
		for i, src := range sources {
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, fmt.Errorf("field %s pattern %d: %w", field, i, err)
			}
			if re.NumSubexp() < 1 {
				return nil, fmt.Errorf("field %s pattern %d has no capture group", field, i)
			}
			compiled = append(compiled, re)
		}
		set[field] = compiled
	}
	return set, nil
}

// Extend appends the patterns of table to s, after the existing patterns of
// each field.
func (s PatternSet) Extend(table map[string][]string) (PatternSet, error) {
	extra, err := CompilePatterns(table)
	if err != nil {
		return nil, err
	}
	out := make(PatternSet, len(s)+len(extra))
	for field, patterns := range s {
		out[field] = append([]*regexp.Regexp(nil), patterns...)
	}
	for field, patterns := range extra {
		out[field] = append(out[field], patterns...)
	}
	return out, nil
}

// labelAliases are the label spellings the generic label-value fallback
// compares against.
var labelAliases = map[string][]string{
	fields.Name:    {"name", "full name", "applicant name", "candidate name", "नाम"},
	fields.DOB:     {"dob", "date of birth", "birth date", "born on", "जन्म तिथि"},
	fields.Age:     {"age", "age in years"},
	fields.Gender:  {"gender", "sex"},
	fields.Address: {"address", "residential address", "permanent address", "present address", "correspondence address", "पता"},
	fields.Phone:   {"phone", "phone number", "mobile", "mobile number", "contact number", "telephone"},
	fields.Email:   {"email", "email id", "email address"},
	fields.Pincode: {"pincode", "pin code", "postal code", "zip code"},
	fields.City:    {"city", "town"},
	fields.State:   {"state"},
}

// relationLabels mark labels that describe a relative rather than the applicant.
var relationLabels = []string{"father", "mother", "husband", "wife", "guardian", "spouse", "s/o", "d/o", "w/o", "c/o", "पिता", "पति"}

// indianStates are matched inside extracted addresses to derive the state.
// Longer names come first so that "arunachal pradesh" wins over "pradesh".
var indianStates = []string{
	"andaman and nicobar islands", "dadra and nagar haveli", "arunachal pradesh",
	"himachal pradesh", "jammu and kashmir", "madhya pradesh", "uttar pradesh",
	"andhra pradesh", "west bengal", "tamil nadu", "uttarakhand", "chhattisgarh",
	"maharashtra", "puducherry", "lakshadweep", "chandigarh", "jharkhand",
	"karnataka", "meghalaya", "rajasthan", "telangana", "mizoram", "nagaland",
	"manipur", "tripura", "haryana", "gujarat", "kerala", "ladakh", "odisha",
	"punjab", "sikkim", "assam", "bihar", "delhi", "goa",
}
