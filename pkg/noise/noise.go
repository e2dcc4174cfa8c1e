// Package noise degrades clean field values the way OCR does. It is used to
// check how verification decisions hold up against imperfect transcripts.
package noise

import (
	"math/rand"
	"strings"
	"unicode"

	"github.com/Ramsey-B/iris/pkg/fields"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultTypoRate = 0.05
	DefaultSwapRate = 0.2
)

const letters = "abcdefghijklmnopqrstuvwxyz"

// Generator applies seeded OCR-style noise. The same seed always yields the
// same output. A Generator is not safe for concurrent use.
type Generator struct {
	rng      *rand.Rand
	TypoRate float64
	SwapRate float64
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng:      rand.New(rand.NewSource(seed)),
		TypoRate: DefaultTypoRate,
		SwapRate: DefaultSwapRate,
	}
}

// DropAccents decomposes s and keeps only its ASCII runes.
func DropAccents(s string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	if err != nil {
		stripped = s
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, stripped)
}

// PunctuationNoise replaces commas, periods and slashes with spaces.
func PunctuationNoise(s string) string {
	return strings.NewReplacer(",", " ", ".", " ", "/", " ").Replace(s)
}

// ConfuseDigits swaps digits for the letters OCR commonly mistakes them for.
func ConfuseDigits(s string) string {
	return strings.NewReplacer("0", "O", "1", "I").Replace(s)
}

// Typo replaces each letter with a random lowercase letter at TypoRate.
func (g *Generator) Typo(s string) string {
	out := []rune(s)
	for i, r := range out {
		if g.rng.Float64() < g.TypoRate && unicode.IsLetter(r) {
			out[i] = rune(letters[g.rng.Intn(len(letters))])
		}
	}
	return string(out)
}

// SwapTokens swaps one random pair of adjacent tokens at SwapRate.
// Whitespace is collapsed either way.
func (g *Generator) SwapTokens(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) > 1 && g.rng.Float64() < g.SwapRate {
		i := g.rng.Intn(len(tokens) - 1)
		tokens[i], tokens[i+1] = tokens[i+1], tokens[i]
	}
	return strings.Join(tokens, " ")
}

// Record returns a noisy copy of record. Names get accent loss, typos and a
// possible token swap; addresses additionally lose punctuation; phone digits
// are confused. Other fields are copied unchanged.
func (g *Generator) Record(record map[string]string) map[string]string {
	out := make(map[string]string, len(record))
	for field, value := range record {
		out[field] = value
	}

	// Fixed order keeps the random stream reproducible.
	if v := out[fields.Name]; v != "" {
		out[fields.Name] = g.SwapTokens(g.Typo(DropAccents(v)))
	}
	if v := out[fields.Address]; v != "" {
		out[fields.Address] = g.SwapTokens(PunctuationNoise(g.Typo(DropAccents(v))))
	}
	if v := out[fields.Phone]; v != "" {
		out[fields.Phone] = ConfuseDigits(v)
	}
	return out
}
