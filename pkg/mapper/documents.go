package mapper

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Ramsey-B/iris/pkg/fields"
)

// ErrUnknownDocumentType is returned when a document type is not in the
// supported vocabulary.
var ErrUnknownDocumentType = errors.New("unknown document type")

// DocumentType identifies the kind of document the raw text was read from.
// The zero value means the type was not supplied and nothing is filtered.
type DocumentType string

// DocumentClass groups document types by what they prove.
type DocumentClass string

const (
	ClassNone          DocumentClass = ""
	ClassIdentityProof DocumentClass = "identity_proof"
	ClassAddressProof  DocumentClass = "address_proof"
	ClassBirthProof    DocumentClass = "birth_proof"
	ClassHandwritten   DocumentClass = "handwritten"
)

const (
	DocumentTypeNone DocumentType = ""

	DocumentTypeIdentityProof DocumentType = "identity_proof"
	DocumentTypePAN           DocumentType = "pan"
	DocumentTypePassport      DocumentType = "passport"
	DocumentTypeVoterID       DocumentType = "voter_id"
	DocumentTypeIDCard        DocumentType = "id_card"

	DocumentTypeAddressProof  DocumentType = "address_proof"
	DocumentTypeDL            DocumentType = "dl"
	DocumentTypeUtilityBill   DocumentType = "utility_bill"
	DocumentTypeBankStatement DocumentType = "bank_statement"
	DocumentTypeRentAgreement DocumentType = "rent_agreement"

	DocumentTypeBirthProof        DocumentType = "birth_proof"
	DocumentTypeBirthCertificate  DocumentType = "birth_certificate"
	DocumentTypeSchoolCertificate DocumentType = "school_certificate"

	DocumentTypeHandwritten DocumentType = "handwritten"
	DocumentTypeForm        DocumentType = "form"
)

// documentClasses is the closed vocabulary of document types.
var documentClasses = map[DocumentType]DocumentClass{
	DocumentTypeIdentityProof: ClassIdentityProof,
	DocumentTypePAN:           ClassIdentityProof,
	DocumentTypePassport:      ClassIdentityProof,
	DocumentTypeVoterID:       ClassIdentityProof,
	DocumentTypeIDCard:        ClassIdentityProof,

	DocumentTypeAddressProof:  ClassAddressProof,
	DocumentTypeDL:            ClassAddressProof,
	DocumentTypeUtilityBill:   ClassAddressProof,
	DocumentTypeBankStatement: ClassAddressProof,
	DocumentTypeRentAgreement: ClassAddressProof,

	DocumentTypeBirthProof:        ClassBirthProof,
	DocumentTypeBirthCertificate:  ClassBirthProof,
	DocumentTypeSchoolCertificate: ClassBirthProof,

	DocumentTypeHandwritten: ClassHandwritten,
	DocumentTypeForm:        ClassHandwritten,
}

// documentAliases are short spellings accepted by ParseDocumentType.
var documentAliases = map[string]DocumentType{
	"identity": DocumentTypeIdentityProof,
	"address":  DocumentTypeAddressProof,
	"birth":    DocumentTypeBirthProof,
}

// classFields lists the fields each class of document may yield. A nil entry
// keeps every extracted field.
var classFields = map[DocumentClass][]string{
	ClassIdentityProof: {fields.Name},
	ClassAddressProof:  {fields.Address, fields.City, fields.State, fields.Pincode},
	ClassBirthProof:    {fields.DOB},
	ClassHandwritten:   nil,
}

// expectedFields are reported missing for unfiltered documents.
var expectedFields = []string{fields.Name, fields.DOB, fields.Gender, fields.Address, fields.Phone, fields.Email}

// ParseDocumentType validates s against the document type vocabulary.
// Blank input parses to DocumentTypeNone.
func ParseDocumentType(s string) (DocumentType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if key == "" || key == "null" {
		return DocumentTypeNone, nil
	}
	if alias, ok := documentAliases[key]; ok {
		return alias, nil
	}
	dt := DocumentType(key)
	if _, ok := documentClasses[dt]; !ok {
		return DocumentTypeNone, fmt.Errorf("%w: %q", ErrUnknownDocumentType, s)
	}
	return dt, nil
}

// DocumentTypes returns the supported document types in sorted order.
func DocumentTypes() []string {
	out := make([]string, 0, len(documentClasses))
	for dt := range documentClasses {
		out = append(out, string(dt))
	}
	sort.Strings(out)
	return out
}

// Class returns the document class of d.
func (d DocumentType) Class() DocumentClass {
	return documentClasses[d]
}

// AllowedFields returns the fields d may yield. ok is false when d applies no
// filter.
func (d DocumentType) AllowedFields() (allowed []string, ok bool) {
	allowed = classFields[d.Class()]
	return allowed, allowed != nil
}

// Filter projects set down to the fields allowed for d.
func (d DocumentType) Filter(set ExtractedFieldSet) ExtractedFieldSet {
	allowed, ok := d.AllowedFields()
	if !ok {
		return set
	}
	out := make(ExtractedFieldSet, len(allowed))
	for _, field := range allowed {
		if v, found := set[field]; found {
			out[field] = v
		}
	}
	return out
}

// MissingFields lists the fields expected from a document of type d that set
// does not contain.
func (d DocumentType) MissingFields(set ExtractedFieldSet) []string {
	expected, ok := d.AllowedFields()
	if !ok {
		expected = expectedFields
	}
	missing := make([]string, 0)
	for _, field := range expected {
		if _, found := set[field]; !found {
			missing = append(missing, field)
		}
	}
	return missing
}
