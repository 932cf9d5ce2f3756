package constants

import "strings"

// Purpose is a loan-reason tag selected on the application form.
type Purpose string

const (
	PurposeSchoolFees Purpose = "school_fees"
	PurposeMedical    Purpose = "medical"
	PurposeVacation   Purpose = "vacation"
	PurposeFuneral    Purpose = "funeral"
	PurposeCustomary  Purpose = "customary"
	PurposeOthers     Purpose = "others"
)

// canonical order; primary purpose selection falls back to it.
var allPurposes = []Purpose{
	PurposeSchoolFees,
	PurposeMedical,
	PurposeVacation,
	PurposeFuneral,
	PurposeCustomary,
	PurposeOthers,
}

// Purposes returns the purposes in canonical order.
func Purposes() []Purpose {
	out := make([]Purpose, len(allPurposes))
	copy(out, allPurposes)
	return out
}

// Label is the human text used to look a purpose up in free-text descriptions.
func (p Purpose) Label() string {
	if p == PurposeOthers {
		return "other"
	}
	return strings.ReplaceAll(string(p), "_", " ")
}

// Rank is the canonical position of p, or -1 for an unknown purpose.
func (p Purpose) Rank() int {
	for i, q := range allPurposes {
		if q == p {
			return i
		}
	}
	return -1
}

func PurposesAsStrings() []string {
	result := make([]string, len(allPurposes))
	for i, p := range allPurposes {
		result[i] = string(p)
	}
	return result
}
