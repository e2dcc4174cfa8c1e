// Package fields defines the applicant field vocabulary shared by the mapper,
// normalizers, scorer and verifier.
package fields

import (
	"strings"

	"github.com/Gobusters/ectolinq"
)

const (
	Name    = "name"
	DOB     = "dob"
	Age     = "age"
	Gender  = "gender"
	Address = "address"
	Phone   = "phone"
	Email   = "email"
	Pincode = "pincode"
	City    = "city"
	State   = "state"
	Surname = "surname"
)

// All lists the fields the mapper knows how to extract, in extraction order.
var All = []string{Name, DOB, Age, Gender, Address, Phone, Email, Pincode, City, State}

// aliases maps the key spellings seen from clients and upstream OCR payloads
// to the canonical field name.
var aliases = map[string]string{
	"full_name":      Name,
	"fullname":       Name,
	"given_name":     Name,
	"first_name":     Name,
	"applicant_name": Name,

	"mobile":          Phone,
	"mobile_number":   Phone,
	"mobile_no":       Phone,
	"phone_no":        Phone,
	"phone_number":    Phone,
	"phonenumber":     Phone,
	"phonenumbere164": Phone,
	"contact":         Phone,

	"date_of_birth": DOB,
	"dateofbirth":   DOB,
	"birth_date":    DOB,
	"birthdate":     DOB,

	"sex": Gender,

	"pin":         Pincode,
	"pin_code":    Pincode,
	"postal_code": Pincode,
	"postalcode":  Pincode,
	"zip":         Pincode,
	"zipcode":     Pincode,

	"e_mail":        Email,
	"email_address": Email,
	"emailaddress":  Email,

	"last_name":   Surname,
	"family_name": Surname,

	"address_line":        Address,
	"residential_address": Address,
}

// Canonical returns the canonical field name for key. Keys are matched
// case-insensitively; unknown keys are returned lowercased.
func Canonical(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, "-", "_")
	k = strings.ReplaceAll(k, " ", "_")
	if canonical, ok := aliases[k]; ok {
		return canonical
	}
	return k
}

// CanonicalizeRecord rewrites the keys of record to canonical field names.
// When several keys collapse onto the same field, a non-empty value under the
// canonical spelling wins, then a non-empty alias, then the lexically
// smallest alias.
func CanonicalizeRecord(record map[string]string) map[string]string {
	out := make(map[string]string, len(record))
	aliased := make(map[string]string)
	for key, value := range record {
		canonical := Canonical(key)
		if canonical == strings.ToLower(strings.TrimSpace(key)) {
			out[canonical] = value
			continue
		}
		if prev, ok := aliased[canonical]; ok && !preferAlias(key, value, prev, record[prev]) {
			continue
		}
		aliased[canonical] = key
	}
	for canonical, key := range aliased {
		if existing, ok := out[canonical]; ok && strings.TrimSpace(existing) != "" {
			continue
		}
		out[canonical] = record[key]
	}
	return out
}

func preferAlias(key, value, prevKey, prevValue string) bool {
	blank, prevBlank := strings.TrimSpace(value) == "", strings.TrimSpace(prevValue) == ""
	if blank != prevBlank {
		return !blank
	}
	return key < prevKey
}

// IsKnown reports whether field is part of the extraction vocabulary.
func IsKnown(field string) bool {
	return ectolinq.Contains(All, field)
}
