package extract

import "github.com/joseph-ayodele/loan-intake/constants"

// SchemaVersion is bumped whenever a field is added, removed or changes kind.
const SchemaVersion = 1

// FieldName is a canonical extracted field. The set is closed: only names
// declared in this file can be stored in a FieldSet.
type FieldName string

// Kind is the declared value type of a field.
type Kind int

const (
	KindString Kind = iota + 1
	KindDate
	KindDecimal
	KindInteger
	KindFlag
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindDecimal:
		return "decimal"
	case KindInteger:
		return "integer"
	case KindFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// Record is a sub-record type owned by a loan application.
type Record string

const (
	RecordPersonal    Record = "personal_details"
	RecordEmployment  Record = "employment_details"
	RecordResidential Record = "residential_address"
	RecordProduct     Record = "loan_product"
	RecordFinancial   Record = "financial_details"
	RecordFunding     Record = "funding_details"
)

var allRecords = []Record{
	RecordPersonal,
	RecordEmployment,
	RecordResidential,
	RecordProduct,
	RecordFinancial,
	RecordFunding,
}

// Records returns every sub-record type in materialization order.
func Records() []Record {
	out := make([]Record, len(allRecords))
	copy(out, allRecords)
	return out
}

const (
	// personal
	FieldSurname      FieldName = "surname"
	FieldGivenName    FieldName = "given_name"
	FieldDateOfBirth  FieldName = "date_of_birth"
	FieldGender       FieldName = "gender"
	FieldMobileNumber FieldName = "mobile_number"
	FieldEmail        FieldName = "email"
	FieldVillage      FieldName = "village"
	FieldDistrict     FieldName = "district"
	FieldProvince     FieldName = "province"
	FieldNationality  FieldName = "nationality"

	// employment
	FieldCompanyDepartment FieldName = "company_department"
	FieldFileNumber        FieldName = "file_number"
	FieldPosition          FieldName = "position"
	FieldPostalAddress     FieldName = "postal_address"
	FieldPhone             FieldName = "phone"
	FieldDateEmployed      FieldName = "date_employed"
	FieldPaymaster         FieldName = "paymaster"

	// residential
	FieldLot                FieldName = "lot"
	FieldSection            FieldName = "section"
	FieldSuburb             FieldName = "suburb"
	FieldStreetName         FieldName = "street_name"
	FieldMaritalStatus      FieldName = "marital_status"
	FieldSpouseLastName     FieldName = "spouse_last_name"
	FieldSpouseFirstName    FieldName = "spouse_first_name"
	FieldSpouseEmployerName FieldName = "spouse_employer_name"
	FieldSpouseContact      FieldName = "spouse_contact"

	// product
	FieldSchoolFees         FieldName = "school_fees"
	FieldMedical            FieldName = "medical"
	FieldVacation           FieldName = "vacation"
	FieldFuneral            FieldName = "funeral"
	FieldCustomary          FieldName = "customary"
	FieldOthers             FieldName = "others"
	FieldProductDescription FieldName = "product_description"

	// financial
	FieldLoanAmount           FieldName = "loan_amount"
	FieldFortnightlyRepayment FieldName = "fortnightly_repayment"
	FieldNumberOfFortnights   FieldName = "number_of_fortnights"
	FieldTotalLoanRepayable   FieldName = "total_loan_repayable"
	FieldGrossSalary          FieldName = "gross_salary"
	FieldNetSalary            FieldName = "net_salary"

	// funding
	FieldBank          FieldName = "bank"
	FieldBranch        FieldName = "branch"
	FieldBSBCode       FieldName = "bsb_code"
	FieldAccountName   FieldName = "account_name"
	FieldAccountNumber FieldName = "account_number"
	FieldAccountType   FieldName = "account_type"
)

type fieldSpec struct {
	name    FieldName
	kind    Kind
	record  Record
	purpose constants.Purpose // flags only
}

var fieldTable = []fieldSpec{
	{name: FieldSurname, kind: KindString, record: RecordPersonal},
	{name: FieldGivenName, kind: KindString, record: RecordPersonal},
	{name: FieldDateOfBirth, kind: KindDate, record: RecordPersonal},
	{name: FieldGender, kind: KindString, record: RecordPersonal},
	{name: FieldMobileNumber, kind: KindString, record: RecordPersonal},
	{name: FieldEmail, kind: KindString, record: RecordPersonal},
	{name: FieldVillage, kind: KindString, record: RecordPersonal},
	{name: FieldDistrict, kind: KindString, record: RecordPersonal},
	{name: FieldProvince, kind: KindString, record: RecordPersonal},
	{name: FieldNationality, kind: KindString, record: RecordPersonal},

	{name: FieldCompanyDepartment, kind: KindString, record: RecordEmployment},
	{name: FieldFileNumber, kind: KindString, record: RecordEmployment},
	{name: FieldPosition, kind: KindString, record: RecordEmployment},
	{name: FieldPostalAddress, kind: KindString, record: RecordEmployment},
	{name: FieldPhone, kind: KindString, record: RecordEmployment},
	{name: FieldDateEmployed, kind: KindDate, record: RecordEmployment},
	{name: FieldPaymaster, kind: KindString, record: RecordEmployment},

	{name: FieldLot, kind: KindString, record: RecordResidential},
	{name: FieldSection, kind: KindString, record: RecordResidential},
	{name: FieldSuburb, kind: KindString, record: RecordResidential},
	{name: FieldStreetName, kind: KindString, record: RecordResidential},
	{name: FieldMaritalStatus, kind: KindString, record: RecordResidential},
	{name: FieldSpouseLastName, kind: KindString, record: RecordResidential},
	{name: FieldSpouseFirstName, kind: KindString, record: RecordResidential},
	{name: FieldSpouseEmployerName, kind: KindString, record: RecordResidential},
	{name: FieldSpouseContact, kind: KindString, record: RecordResidential},

	{name: FieldSchoolFees, kind: KindFlag, record: RecordProduct, purpose: constants.PurposeSchoolFees},
	{name: FieldMedical, kind: KindFlag, record: RecordProduct, purpose: constants.PurposeMedical},
	{name: FieldVacation, kind: KindFlag, record: RecordProduct, purpose: constants.PurposeVacation},
	{name: FieldFuneral, kind: KindFlag, record: RecordProduct, purpose: constants.PurposeFuneral},
	{name: FieldCustomary, kind: KindFlag, record: RecordProduct, purpose: constants.PurposeCustomary},
	{name: FieldOthers, kind: KindFlag, record: RecordProduct, purpose: constants.PurposeOthers},
	{name: FieldProductDescription, kind: KindString, record: RecordProduct},

	{name: FieldLoanAmount, kind: KindDecimal, record: RecordFinancial},
	{name: FieldFortnightlyRepayment, kind: KindDecimal, record: RecordFinancial},
	{name: FieldNumberOfFortnights, kind: KindInteger, record: RecordFinancial},
	{name: FieldTotalLoanRepayable, kind: KindDecimal, record: RecordFinancial},
	{name: FieldGrossSalary, kind: KindDecimal, record: RecordFinancial},
	{name: FieldNetSalary, kind: KindDecimal, record: RecordFinancial},

	{name: FieldBank, kind: KindString, record: RecordFunding},
	{name: FieldBranch, kind: KindString, record: RecordFunding},
	{name: FieldBSBCode, kind: KindString, record: RecordFunding},
	{name: FieldAccountName, kind: KindString, record: RecordFunding},
	{name: FieldAccountNumber, kind: KindString, record: RecordFunding},
	{name: FieldAccountType, kind: KindString, record: RecordFunding},
}

var (
	fieldIndex = map[FieldName]int{}
	byPurpose  = map[constants.Purpose]FieldName{}
)

func init() {
	for i, f := range fieldTable {
		fieldIndex[f.name] = i
		if f.kind == KindFlag {
			byPurpose[f.purpose] = f.name
		}
	}
}

// Lookup resolves a stored field name. Unknown names are rejected.
func Lookup(name string) (FieldName, bool) {
	_, ok := fieldIndex[FieldName(name)]
	return FieldName(name), ok
}

// KindOf returns the declared kind of a field, or 0 for an unknown name.
func KindOf(name FieldName) Kind {
	if i, ok := fieldIndex[name]; ok {
		return fieldTable[i].kind
	}
	return 0
}

// RecordOf returns the sub-record that owns a field.
func RecordOf(name FieldName) (Record, bool) {
	if i, ok := fieldIndex[name]; ok {
		return fieldTable[i].record, true
	}
	return "", false
}

// PurposeField returns the flag field recording p.
func PurposeField(p constants.Purpose) (FieldName, bool) {
	f, ok := byPurpose[p]
	return f, ok
}

// FieldsOf returns the fields owned by r in table order.
func FieldsOf(r Record) []FieldName {
	var out []FieldName
	for _, f := range fieldTable {
		if f.record == r {
			out = append(out, f.name)
		}
	}
	return out
}
