package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/loan-intake/constants"
)

// Value shapes. Separators use [ \t] so an empty label never captures the
// next line. A free-text value runs to the end of its line, must not start on
// label punctuation and must not contain a colon, so a blank "Street Name:"
// never yields "Name:".
const (
	sep       = `\.?[ \t]*:?[ \t]*`
	textVal   = `([^\s:./][^\n:]*)$`
	dateVal   = `(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`
	moneyVal  = `((?:\$|PGK|K)?[ \t]*[\d,]+(?:\.\d+)?)`
	digitsVal = `([+\d][\d \-+]*)`
	countVal  = `(\d+)`
	marker    = `[☒✓✔☑×*]`

	// boxGlyphs are the ticked markers plus the empty boxes a form prints.
	boxGlyphs = "☐□☒✓✔☑×*"
)

type pattern struct {
	field FieldName
	re    *regexp.Regexp
	// trailing is the label-then-marker form of a checkbox, tried when re
	// finds no marker in front of the label.
	trailing *regexp.Regexp
}

func labeled(f FieldName, label, value string) pattern {
	return pattern{field: f, re: regexp.MustCompile(`(?im)\b(?:` + label + `)\b` + sep + value)}
}

// checkbox matches a marker glyph in front of the label, or after it when the
// label itself is not printed behind a box.
func checkbox(f FieldName, label string) pattern {
	l := `\b(?:` + label + `)\b`
	return pattern{
		field:    f,
		re:       regexp.MustCompile(`(?i)` + marker + `[ \t]*` + l),
		trailing: regexp.MustCompile(`(?i)` + l + `[ \t]*` + marker),
	}
}

// flagged reports whether the checkbox is ticked in text. In
// "☐ Vacation ☒ Funeral" the ☒ belongs to Funeral, not Vacation.
func (p pattern) flagged(text string) bool {
	if p.re.MatchString(text) {
		return true
	}
	for _, loc := range p.trailing.FindAllStringIndex(text, -1) {
		if !boxedBefore(text, loc[0]) {
			return true
		}
	}
	return false
}

func boxedBefore(text string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(strings.TrimRight(text[:i], " \t"))
	return strings.ContainsRune(boxGlyphs, r)
}

var loanApplicationPatterns = []pattern{
	labeled(FieldSurname, `Surname`, textVal),
	labeled(FieldGivenName, `Given\s+Names?`, textVal),
	labeled(FieldDateOfBirth, `Date\s+of\s+Birth|DOB`, dateVal),
	labeled(FieldGender, `Gender|Sex`, `(Male|Female|M|F)\b`),
	labeled(FieldMobileNumber, `Mobile(?:\s+Number)?`, digitsVal),
	labeled(FieldEmail, `E-?mail(?:\s+Address)?`, `([^\s@]+@[^\s@]+)`),
	labeled(FieldVillage, `Village`, textVal),
	labeled(FieldDistrict, `District`, textVal),
	labeled(FieldProvince, `Province`, textVal),
	labeled(FieldNationality, `Nationality`, textVal),

	labeled(FieldCompanyDepartment, `Company\s*/\s*Department|Company|Department`, textVal),
	labeled(FieldFileNumber, `File\s+(?:Number|No)`, textVal),
	labeled(FieldPosition, `Position`, textVal),
	labeled(FieldPostalAddress, `Postal\s+Address`, textVal),
	labeled(FieldPhone, `Phone`, digitsVal),
	labeled(FieldDateEmployed, `Date\s+(?:Employed|of\s+Employment)`, dateVal),
	labeled(FieldPaymaster, `Paymaster`, textVal),

	labeled(FieldLot, `Lot`, textVal),
	labeled(FieldSection, `Section`, textVal),
	labeled(FieldSuburb, `Suburb`, textVal),
	labeled(FieldStreetName, `Street(?:\s+Name)?`, textVal),
	labeled(FieldMaritalStatus, `Marital\s+Status`, `(Single|Married|Divorced|Widowed)`),
	labeled(FieldSpouseLastName, `Spouse\s+(?:Last\s+Name|Surname)`, textVal),
	labeled(FieldSpouseFirstName, `Spouse\s+(?:First|Given)\s+Name`, textVal),
	labeled(FieldSpouseEmployerName, `Spouse\s+Employer(?:\s+Name)?`, textVal),
	labeled(FieldSpouseContact, `Spouse\s+(?:Contact|Phone)`, digitsVal),

	checkbox(FieldSchoolFees, `School\s+Fees`),
	checkbox(FieldMedical, `Medical`),
	checkbox(FieldVacation, `Vacation`),
	checkbox(FieldFuneral, `Funeral`),
	checkbox(FieldCustomary, `Customary`),
	checkbox(FieldOthers, `Others?`),
	labeled(FieldProductDescription, `Purpose\s+Description|Description\s+of\s+Purpose|Purpose`, textVal),

	labeled(FieldLoanAmount, `Loan\s+Amount`, moneyVal),
	labeled(FieldFortnightlyRepayment, `Fortnightly\s+Repayment`, moneyVal),
	labeled(FieldNumberOfFortnights, `(?:Number|No\.?)\s+of\s+Fortnights`, countVal),
	labeled(FieldTotalLoanRepayable, `Total\s+Loan\s+Repayable`, moneyVal),
	labeled(FieldGrossSalary, `Gross\s+(?:Salary|Pay)`, moneyVal),
	labeled(FieldNetSalary, `Net\s+(?:Salary|Pay)`, moneyVal),

	labeled(FieldBank, `Bank(?:\s+Name)?`, textVal),
	labeled(FieldBranch, `Branch`, textVal),
	labeled(FieldBSBCode, `BSB(?:\s+Code)?`, textVal),
	labeled(FieldAccountName, `Account\s+Name`, textVal),
	labeled(FieldAccountNumber, `Account\s+(?:Number|No)`, textVal),
	labeled(FieldAccountType, `Account\s+Type`, `(Savings|Cheque)`),
}

var payslipPatterns = []pattern{
	labeled(FieldGrossSalary, `Gross\s+(?:Salary|Pay)`, moneyVal),
	labeled(FieldNetSalary, `Net\s+(?:Salary|Pay)`, moneyVal),
}

var employmentConfirmationPatterns = []pattern{
	labeled(FieldPosition, `Position`, textVal),
	labeled(FieldDateEmployed, `Date\s+(?:Employed|of\s+Employment)`, dateVal),
	labeled(FieldCompanyDepartment, `Department`, textVal),
}

var patternTable = map[constants.DocumentType][]pattern{
	constants.DocLoanApplication:        loanApplicationPatterns,
	constants.DocPayslip:                payslipPatterns,
	constants.DocEmploymentConfirmation: employmentConfirmationPatterns,
}

// FieldsFor lists the fields a document category can yield. Categories
// without patterns yield none.
func FieldsFor(category constants.DocumentType) []FieldName {
	ps := patternTable[category]
	out := make([]FieldName, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.field)
	}
	return out
}
