package verification

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Ramsey-B/iris/pkg/normalizers"
)

const NoteAgeUnparsable = "age_unparsable"

// AgeOn returns the age in whole years of someone born on dob, on date on.
func AgeOn(dob, on time.Time) int {
	years := on.Year() - dob.Year()
	if on.Month() < dob.Month() || (on.Month() == dob.Month() && on.Day() < dob.Day()) {
		years--
	}
	return years
}

// AgeNotes checks a stated age against the age derived from the canonical
// date of birth dob on reference. A zero reference or a missing dob skips the
// comparison.
func AgeNotes(statedAge, dob string, reference time.Time, tolerance int) []string {
	if strings.TrimSpace(statedAge) == "" {
		return nil
	}

	canonical := normalizers.NormalizeAge(statedAge)
	if canonical == "" {
		return []string{NoteAgeUnparsable}
	}
	stated, err := strconv.Atoi(canonical)
	if err != nil {
		return []string{NoteAgeUnparsable}
	}

	if reference.IsZero() {
		return nil
	}
	born, ok := normalizers.ParseISODate(dob)
	if !ok {
		return nil
	}

	derived := AgeOn(born, reference)
	if diff := stated - derived; diff > tolerance || -diff > tolerance {
		return []string{AgeMismatchNote(stated, derived)}
	}
	return nil
}

// AgeMismatchNote formats the note attached when a stated age disagrees with
// the date of birth.
func AgeMismatchNote(stated, derived int) string {
	return fmt.Sprintf("age_mismatch(stated=%d, derived=%d)", stated, derived)
}
