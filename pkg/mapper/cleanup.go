package mapper

import (
	"strings"

	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/Ramsey-B/iris/pkg/normalizers"
)

// cleanValue tidies a raw captured value for field. It does not canonicalize:
// names and addresses keep their case so the output stays readable.
func cleanValue(field, raw string, opts normalizers.Options) string {
	value := normalizers.CollapseWhitespace(raw)

	switch field {
	case fields.Phone:
		return normalizers.DigitsOnly(value)
	case fields.Email:
		return normalizers.NormalizeEmail(strings.ReplaceAll(value, " ", ""))
	case fields.Pincode:
		return normalizers.NormalizePincode(value)
	case fields.Age:
		return normalizers.NormalizeAge(value)
	case fields.DOB:
		if iso := normalizers.NormalizeWith(fields.DOB, value, opts); iso != "" {
			return iso
		}
		return trimValue(value)
	default:
		return trimValue(value)
	}
}

// trimValue drops separators and stray punctuation OCR leaves at either end
// of a value.
func trimValue(s string) string {
	return strings.Trim(s, " \t,;:|-–.")
}
