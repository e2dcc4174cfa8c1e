package normalizers

import (
	"testing"
	"unicode"

	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"should lowercase and strip punctuation", "RAMESH, Kumar.", "ramesh kumar"},
		{"should strip latin diacritics", "José Müller", "jose muller"},
		{"should drop honorifics", "Shri Ramesh Kumar", "ramesh kumar"},
		{"should expand name abbreviations", "Mohd. Irfan", "mohammad irfan"},
		{"should collapse whitespace", "  Ramesh    Kumar  ", "ramesh kumar"},
		{"should return empty for punctuation only", "...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}

	t.Run("should transliterate devanagari to ascii", func(t *testing.T) {
		result := NormalizeName("रमेश कुमार")
		require.NotEmpty(t, result)
		for _, r := range result {
			assert.True(t, r <= unicode.MaxASCII, "unexpected rune %q in %q", r, result)
		}
	})
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"should expand street abbreviations", "12 Elm St.", "12 elm street"},
		{"should expand road abbreviation", "MG Rd", "mg road"},
		{"should drop stopwords", "Near the Old Temple", "old temple"},
		{"should drop expanded stopwords", "Opp. City Mall", "city mall"},
		{"should split slashes", "B12/3 Gandhi Street", "b12 3 gandhi street"},
		{"should expand multi word abbreviations", "HNo 4, Sector 9", "house number 4 sector 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeAddress(tt.input))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"should strip formatting", "(987) 654-3210", "9876543210"},
		{"should drop country code", "+91 98765 43210", "9876543210"},
		{"should drop trunk prefix", "09876543210", "9876543210"},
		{"should keep short numbers", "12345", "12345"},
		{"should fold devanagari digits", "९८७६५४३२१०", "9876543210"},
		{"should return empty without digits", "n/a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestNormalizeDOB(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"should keep iso dates", "1990-02-01", "1990-02-01"},
		{"should read slashes day first", "01/02/1990", "1990-02-01"},
		{"should read dashes day first", "19-04-2001", "2001-04-19"},
		{"should read dots day first", "19.04.2001", "2001-04-19"},
		{"should swap when second component is not a month", "04/19/2001", "2001-04-19"},
		{"should expand two digit years", "19-04-01", "2001-04-19"},
		{"should parse slashed iso dates", "2001/04/19", "2001-04-19"},
		{"should parse abbreviated month names", "19 Apr 2001", "2001-04-19"},
		{"should parse full month names", "19 April 2001", "2001-04-19"},
		{"should parse month first names", "April 19, 2001", "2001-04-19"},
		{"should parse ordinal days", "19th April 2001", "2001-04-19"},
		{"should find a date inside text", "DOB 19/04/2001 (as per record)", "2001-04-19"},
		{"should fold devanagari digits", "१९/०४/२००१", "2001-04-19"},
		{"should reject impossible dates", "31/02/2001", ""},
		{"should reject garbage", "not a date", ""},
		{"should reject empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDOB(tt.input))
		})
	}
}

func TestDateNormalizerMonthFirst(t *testing.T) {
	normalize := DateNormalizer(MonthFirst)

	t.Run("should read ambiguous dates month first", func(t *testing.T) {
		assert.Equal(t, "1990-01-02", normalize("01/02/1990"))
	})

	t.Run("should read day first when the first component cannot be a month", func(t *testing.T) {
		assert.Equal(t, "1990-02-13", normalize("13/02/1990"))
	})
}

func TestParseDateOrder(t *testing.T) {
	order, err := ParseDateOrder("month_first")
	require.NoError(t, err)
	assert.Equal(t, MonthFirst, order)

	order, err = ParseDateOrder("")
	require.NoError(t, err)
	assert.Equal(t, DayFirst, order)

	_, err = ParseDateOrder("year_first")
	assert.Error(t, err)
}

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"M", GenderMale},
		{"Male", GenderMale},
		{"पुरुष", GenderMale},
		{"पुरुष / MALE", GenderMale},
		{"f", GenderFemale},
		{"Woman", GenderFemale},
		{"महिला", GenderFemale},
		{"Non-Binary", GenderOther},
		{"अन्य", GenderOther},
		{"T", GenderOther},
		{"tg", GenderOther},
		{"unknown", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run("should map "+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeGender(tt.input))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ramesh@gmail.com", NormalizeEmail("  Ramesh@GMIAL.com "))
	assert.Equal(t, "ramesh@example.org", NormalizeEmail("ramesh@example.org"))
	assert.Equal(t, "not-an-email", NormalizeEmail("Not-An-Email"))
}

func TestNormalizePincode(t *testing.T) {
	assert.Equal(t, "560001", NormalizePincode("560 001"))
	assert.Equal(t, "560001", NormalizePincode("5600012"))
	assert.Equal(t, "", NormalizePincode("none"))
}

func TestNormalizeAge(t *testing.T) {
	assert.Equal(t, "34", NormalizeAge("34 years"))
	assert.Equal(t, "7", NormalizeAge("007"))
	assert.Equal(t, "", NormalizeAge("12345"))
	assert.Equal(t, "", NormalizeAge("unknown"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := map[string][]string{
		fields.Name:    {"Shri RAMESH Kr.", "José Müller", "रमेश कुमार", "Mohd Irfan", "Dr. The Ram"},
		fields.Address: {"12 Elm St.", "Opp. City Mall, Nr Bus Stn", "H.No 4/2, Sec-9", "पता: गांधी मार्ग"},
		fields.Phone:   {"+91 98765 43210", "12-34", "९८७६५४३२१०"},
		fields.DOB:     {"01/02/1990", "19 April 2001", "garbage", "04/19/01"},
		fields.Gender:  {"पुरुष / MALE", "F", "nb", "?"},
		fields.Email:   {" Ramesh@Gmial.com", "x@y.z"},
		fields.Pincode: {"560 0012", "abc"},
		fields.Age:     {"034 yrs", "n/a"},
		fields.City:    {"Bengaluru (Bangalore)"},
		"unknown":      {"Some Value, Here"},
	}

	for field, values := range inputs {
		for _, value := range values {
			t.Run("should be idempotent for "+field+" "+value, func(t *testing.T) {
				once := Normalize(field, value)
				assert.Equal(t, once, Normalize(field, once))
			})
		}
	}
}

func TestNormalizeRecord(t *testing.T) {
	out := NormalizeRecord(map[string]string{
		fields.Name:   "Ramesh Kumar",
		fields.DOB:    "not a date",
		fields.Gender: "M",
	}, Options{})

	assert.Equal(t, map[string]string{
		fields.Name:   "ramesh kumar",
		fields.Gender: GenderMale,
	}, out)
}

func TestApplyChain(t *testing.T) {
	assert.Equal(t, "12345", ApplyChain(" 12-345 ", "trim", "digits_only"))
	assert.Equal(t, " X ", ApplyChain(" X ", "does_not_exist"))
}
