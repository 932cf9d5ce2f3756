// Package materialize turns an extracted field set into a loan application
// and its typed sub-records.
package materialize

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/entity"
	"github.com/joseph-ayodele/loan-intake/internal/extract"
)

// Defaults substituted for missing attributes of a created sub-record.
var (
	DefaultDate          = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	DefaultGender        = "M"
	DefaultMaritalStatus = "single"
	DefaultAccountType   = "savings"
)

var anchors = map[extract.Record][]extract.FieldName{
	extract.RecordPersonal:    {extract.FieldSurname, extract.FieldGivenName, extract.FieldDateOfBirth},
	extract.RecordEmployment:  {extract.FieldCompanyDepartment, extract.FieldPosition, extract.FieldFileNumber},
	extract.RecordResidential: {extract.FieldLot, extract.FieldSection, extract.FieldSuburb},
	extract.RecordFinancial:   {extract.FieldLoanAmount, extract.FieldGrossSalary},
	extract.RecordFunding:     {extract.FieldBank, extract.FieldAccountNumber, extract.FieldBSBCode},
}

// Anchors returns the fields whose presence justifies creating r.
func Anchors(r extract.Record) []extract.FieldName {
	if r == extract.RecordProduct {
		return productAnchors()
	}
	return append([]extract.FieldName(nil), anchors[r]...)
}

func productAnchors() []extract.FieldName {
	out := []extract.FieldName{extract.FieldProductDescription}
	for _, p := range constants.Purposes() {
		if f, ok := extract.PurposeField(p); ok {
			out = append(out, f)
		}
	}
	return out
}

// ReachableRecords lists the sub-records a document category can produce,
// in materialization order.
func ReachableRecords(category constants.DocumentType) []extract.Record {
	available := map[extract.FieldName]bool{}
	for _, f := range extract.FieldsFor(category) {
		available[f] = true
	}
	var out []extract.Record
	for _, r := range extract.Records() {
		for _, a := range Anchors(r) {
			if available[a] {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Plan is the application a field set materializes into. Records lists the
// sub-records that are set on Application.
type Plan struct {
	Application *entity.LoanApplication
	Records     []extract.Record
}

func (p Plan) Empty() bool { return len(p.Records) == 0 }

// PlanFor builds the sub-records anchored by fields. It never fails: missing
// attributes take their defaults.
func PlanFor(fields extract.FieldSet) Plan {
	app := &entity.LoanApplication{Status: constants.ApplicationStatusPending}
	var created []extract.Record

	for _, r := range extract.Records() {
		if !fields.HasAny(Anchors(r)...) {
			continue
		}
		switch r {
		case extract.RecordPersonal:
			app.Personal = personal(fields)
		case extract.RecordEmployment:
			app.Employment = employment(fields)
		case extract.RecordResidential:
			app.Residential = residential(fields)
		case extract.RecordProduct:
			app.Product = product(fields)
		case extract.RecordFinancial:
			app.Financial = financial(fields)
		case extract.RecordFunding:
			app.Funding = funding(fields)
		}
		created = append(created, r)
	}
	return Plan{Application: app, Records: created}
}

func str(fs extract.FieldSet, name extract.FieldName) string {
	s, _ := fs.String(name)
	return s
}

func date(fs extract.FieldSet, name extract.FieldName) time.Time {
	if d, ok := fs.Date(name); ok {
		return d
	}
	return DefaultDate
}

func money(fs extract.FieldSet, name extract.FieldName) decimal.Decimal {
	if d, ok := fs.Decimal(name); ok {
		return d
	}
	return decimal.Zero
}

func personal(fs extract.FieldSet) *entity.PersonalDetails {
	return &entity.PersonalDetails{
		Surname:      str(fs, extract.FieldSurname),
		GivenName:    str(fs, extract.FieldGivenName),
		DateOfBirth:  date(fs, extract.FieldDateOfBirth),
		Gender:       normalizeGender(str(fs, extract.FieldGender)),
		MobileNumber: str(fs, extract.FieldMobileNumber),
		Email:        str(fs, extract.FieldEmail),
		Village:      str(fs, extract.FieldVillage),
		District:     str(fs, extract.FieldDistrict),
		Province:     str(fs, extract.FieldProvince),
		Nationality:  str(fs, extract.FieldNationality),
	}
}

func employment(fs extract.FieldSet) *entity.EmploymentDetails {
	return &entity.EmploymentDetails{
		CompanyDepartment: str(fs, extract.FieldCompanyDepartment),
		FileNumber:        str(fs, extract.FieldFileNumber),
		Position:          str(fs, extract.FieldPosition),
		PostalAddress:     str(fs, extract.FieldPostalAddress),
		Phone:             str(fs, extract.FieldPhone),
		DateEmployed:      date(fs, extract.FieldDateEmployed),
		Paymaster:         str(fs, extract.FieldPaymaster),
	}
}

func residential(fs extract.FieldSet) *entity.ResidentialAddress {
	return &entity.ResidentialAddress{
		Lot:                str(fs, extract.FieldLot),
		Section:            str(fs, extract.FieldSection),
		Suburb:             str(fs, extract.FieldSuburb),
		StreetName:         str(fs, extract.FieldStreetName),
		MaritalStatus:      lowerOr(str(fs, extract.FieldMaritalStatus), DefaultMaritalStatus),
		SpouseLastName:     str(fs, extract.FieldSpouseLastName),
		SpouseFirstName:    str(fs, extract.FieldSpouseFirstName),
		SpouseEmployerName: str(fs, extract.FieldSpouseEmployerName),
		SpouseContact:      str(fs, extract.FieldSpouseContact),
	}
}

func financial(fs extract.FieldSet) *entity.FinancialDetails {
	n, _ := fs.Int(extract.FieldNumberOfFortnights)
	return &entity.FinancialDetails{
		LoanAmount:           money(fs, extract.FieldLoanAmount),
		FortnightlyRepayment: money(fs, extract.FieldFortnightlyRepayment),
		NumberOfFortnights:   n,
		TotalLoanRepayable:   money(fs, extract.FieldTotalLoanRepayable),
		GrossSalary:          money(fs, extract.FieldGrossSalary),
		NetSalary:            money(fs, extract.FieldNetSalary),
	}
}

func funding(fs extract.FieldSet) *entity.FundingDetails {
	return &entity.FundingDetails{
		Bank:          str(fs, extract.FieldBank),
		Branch:        str(fs, extract.FieldBranch),
		BSBCode:       str(fs, extract.FieldBSBCode),
		AccountName:   str(fs, extract.FieldAccountName),
		AccountNumber: str(fs, extract.FieldAccountNumber),
		AccountType:   lowerOr(str(fs, extract.FieldAccountType), DefaultAccountType),
	}
}

func product(fs extract.FieldSet) *entity.LoanProduct {
	description := str(fs, extract.FieldProductDescription)
	purposes := fs.Purposes()
	if len(purposes) == 0 {
		purposes = []constants.Purpose{constants.PurposeOthers}
	}
	return &entity.LoanProduct{
		Purposes:       purposes,
		PrimaryPurpose: PrimaryPurpose(purposes, description),
		Description:    description,
	}
}

// PrimaryPurpose picks the first purpose whose label appears in description,
// else the first purpose in canonical order.
func PrimaryPurpose(purposes []constants.Purpose, description string) constants.Purpose {
	if len(purposes) == 0 {
		return constants.PurposeOthers
	}
	ordered := slices.Clone(purposes)
	slices.SortStableFunc(ordered, func(a, b constants.Purpose) int { return a.Rank() - b.Rank() })

	desc := strings.ToLower(description)
	if desc != "" {
		for _, p := range ordered {
			if strings.Contains(desc, p.Label()) {
				return p
			}
		}
	}
	return ordered[0]
}

func normalizeGender(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultGender
	}
	return strings.ToUpper(s[:1])
}

func lowerOr(s, def string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	return s
}

// RecordsOf lists the sub-records a stored application carries, in
// materialization order.
func RecordsOf(app *entity.LoanApplication) []extract.Record {
	has := map[extract.Record]bool{
		extract.RecordPersonal:    app.Personal != nil,
		extract.RecordEmployment:  app.Employment != nil,
		extract.RecordResidential: app.Residential != nil,
		extract.RecordProduct:     app.Product != nil,
		extract.RecordFinancial:   app.Financial != nil,
		extract.RecordFunding:     app.Funding != nil,
	}
	var out []extract.Record
	for _, r := range extract.Records() {
		if has[r] {
			out = append(out, r)
		}
	}
	return out
}
