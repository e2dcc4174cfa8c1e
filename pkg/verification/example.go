package verification

import (
	"context"
	"time"

	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/Ramsey-B/iris/pkg/mapper"
)

// ExampleRawText is a sample OCR transcript of a bilingual identity card.
const ExampleRawText = "भारत सरकार\n" +
	"नाम / Name: Ramesh Kumaar\n" +
	"जन्म तिथि / DOB: 19/04/2001\n" +
	"पुरुष / MALE\n" +
	"पता: B12/3 Gandhi Street, MG Rd, Bengaluru, Karnataka 560001\n" +
	"मोबाइल: +91 98765 43210\n"

// ExampleUserRecord is the applicant data paired with ExampleRawText.
var ExampleUserRecord = map[string]string{
	fields.Name:    "Ramesh Kumar",
	fields.DOB:     "2001-04-19",
	fields.Gender:  "M",
	fields.Address: "B12/3 Gandhi Street, MG Road, Bengaluru",
	fields.Phone:   "9876543210",
	fields.Age:     "25",
}

// ExampleReferenceDate is the reference date used by Example.
var ExampleReferenceDate = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// Example maps and verifies the canned sample document.
func (v *Verifier) Example(ctx context.Context) (MappedResult, error) {
	return v.MapAndVerify(ctx, ExampleRawText, mapper.DocumentTypeNone, ExampleUserRecord, Options{ReferenceDate: ExampleReferenceDate})
}

// CheckExample verifies the canned sample like Example but records no
// metrics, spans or logs. Health checks use it.
func (v *Verifier) CheckExample() (MappedResult, error) {
	extracted := v.mapper.MapFields(ExampleRawText, mapper.DocumentTypeNone)

	result, err := v.verify(extracted.Values(), ExampleUserRecord, Options{ReferenceDate: ExampleReferenceDate})
	if err != nil {
		return MappedResult{}, err
	}

	return MappedResult{
		Fields:        extracted,
		MissingFields: mapper.DocumentTypeNone.MissingFields(extracted),
		Verification:  result,
	}, nil
}
