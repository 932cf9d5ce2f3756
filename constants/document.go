package constants

import (
	"fmt"
	"strings"
)

// DocumentType is the declared category of an uploaded document.
type DocumentType string

const (
	DocLoanApplication        DocumentType = "loan_application"
	DocPayslip                DocumentType = "payslip"
	DocEmploymentConfirmation DocumentType = "employment_confirmation"
	DocDataEntry              DocumentType = "data_entry"
	DocVariationAdvice        DocumentType = "variation_advice"
	DocIdentification         DocumentType = "identification"
	DocOther                  DocumentType = "other"
)

var allDocumentTypes = []DocumentType{
	DocLoanApplication,
	DocPayslip,
	DocEmploymentConfirmation,
	DocDataEntry,
	DocVariationAdvice,
	DocIdentification,
	DocOther,
}

// ParseDocumentType accepts the stored value, case and surrounding space ignored.
func ParseDocumentType(s string) (DocumentType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, t := range allDocumentTypes {
		if normalized == string(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

func DocumentTypesAsStrings() []string {
	result := make([]string, len(allDocumentTypes))
	for i, t := range allDocumentTypes {
		result[i] = string(t)
	}
	return result
}
