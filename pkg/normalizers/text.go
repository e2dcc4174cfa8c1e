package normalizers

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningDiacritics covers the combining mark blocks used by Latin, Greek
// and Cyrillic text. Indic vowel signs live in their own script blocks and are
// left for transliteration.
var combiningDiacritics = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0300, Hi: 0x036f, Stride: 1},
		{Lo: 0x1ab0, Hi: 0x1aff, Stride: 1},
		{Lo: 0x1dc0, Hi: 0x1dff, Stride: 1},
		{Lo: 0x20d0, Hi: 0x20ff, Stride: 1},
		{Lo: 0xfe20, Hi: 0xfe2f, Stride: 1},
	},
}

var stripDiacritics = transform.Chain(norm.NFKD, runes.Remove(runes.In(combiningDiacritics)), norm.NFC)

// addressAbbreviations expands thoroughfare and locality abbreviations.
var addressAbbreviations = map[string]string{
	"st":   "street",
	"str":  "street",
	"rd":   "road",
	"ave":  "avenue",
	"av":   "avenue",
	"ln":   "lane",
	"ct":   "court",
	"cir":  "circle",
	"dr":   "drive",
	"pl":   "place",
	"pkwy": "parkway",
	"hwy":  "highway",
	"bldg": "building",
	"blk":  "block",
	"apt":  "apartment",
	"ste":  "suite",
	"fl":   "floor",
	"flr":  "floor",
	"twr":  "tower",
	"ph":   "phase",
	"sec":  "sector",
	"no":   "number",
	"hno":  "house number",
	"po":   "post office",
	"ps":   "police station",
	"stn":  "station",
	"dist": "district",
	"tal":  "taluk",
	"teh":  "tehsil",
	"nr":   "near",
	"opp":  "opposite",
	"ngr":  "nagar",
	"mkt":  "market",
	"clny": "colony",
	"vill": "village",
}

// nameAbbreviations expands abbreviations common in Indian names.
var nameAbbreviations = map[string]string{
	"mohd": "mohammad",
	"md":   "mohammad",
	"kr":   "kumar",
}

// honorifics are dropped from names.
var honorifics = map[string]bool{
	"mr":       true,
	"mrs":      true,
	"ms":       true,
	"miss":     true,
	"dr":       true,
	"shri":     true,
	"sri":      true,
	"smt":      true,
	"shrimati": true,
	"kumari":   true,
}

// stopwords carry no identifying information in names or addresses.
var stopwords = map[string]bool{
	"near":     true,
	"nearby":   true,
	"opposite": true,
	"opp":      true,
	"behind":   true,
	"beside":   true,
	"by":       true,
	"at":       true,
	"the":      true,
	"in":       true,
	"next":     true,
	"to":       true,
	"of":       true,
	"and":      true,
}

// foldText decomposes s, strips Latin diacritics, transliterates any other
// script to ASCII, lowercases it and turns punctuation into token breaks.
func foldText(s string) []string {
	if folded, _, err := transform.String(stripDiacritics, s); err == nil {
		s = folded
	}
	s = strings.ToLower(unidecode.Unidecode(s))

	return strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
}

func expand(tokens []string, table map[string]string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if expansion, ok := table[tok]; ok {
			out = append(out, strings.Fields(expansion)...)
			continue
		}
		out = append(out, tok)
	}
	return out
}

func dropTokens(tokens []string, drop map[string]bool) []string {
	out := tokens[:0]
	for _, tok := range tokens {
		if !drop[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// NormalizeText folds s to lowercase ASCII tokens and removes stopwords
func NormalizeText(s string) string {
	tokens := dropTokens(foldText(s), stopwords)
	return strings.Join(tokens, " ")
}

// NormalizeName normalizes a person's name for matching
// - Transliterate and lowercase
// - Remove punctuation
// - Remove honorifics (Mr, Smt, Dr, ...)
// - Expand common abbreviations (Mohd, Kr)
func NormalizeName(s string) string {
	tokens := dropTokens(foldText(s), honorifics)
	tokens = expand(tokens, nameAbbreviations)
	tokens = dropTokens(tokens, stopwords)
	return strings.Join(tokens, " ")
}

// NormalizeAddress normalizes an address string
func NormalizeAddress(s string) string {
	tokens := expand(foldText(s), addressAbbreviations)
	tokens = dropTokens(tokens, stopwords)
	return strings.Join(tokens, " ")
}

// Tokens splits a canonical value into its whitespace separated tokens
func Tokens(canonical string) []string {
	return strings.Fields(canonical)
}
