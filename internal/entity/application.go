package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/loan-intake/constants"
)

// LoanApplication is the parent aggregate. Each sub-record is optional and
// owned by exactly one application.
type LoanApplication struct {
	ID        uuid.UUID                   `json:"id"`
	OwnerID   *uuid.UUID                  `json:"owner_id,omitempty"`
	Status    constants.ApplicationStatus `json:"status"`
	CreatedAt time.Time                   `json:"created_at"`

	Personal    *PersonalDetails    `json:"personal_details,omitempty"`
	Employment  *EmploymentDetails  `json:"employment_details,omitempty"`
	Residential *ResidentialAddress `json:"residential_address,omitempty"`
	Product     *LoanProduct        `json:"loan_product,omitempty"`
	Financial   *FinancialDetails   `json:"financial_details,omitempty"`
	Funding     *FundingDetails     `json:"funding_details,omitempty"`
}

type PersonalDetails struct {
	Surname      string    `json:"surname"`
	GivenName    string    `json:"given_name"`
	DateOfBirth  time.Time `json:"date_of_birth"`
	Gender       string    `json:"gender"`
	MobileNumber string    `json:"mobile_number"`
	Email        string    `json:"email"`
	Village      string    `json:"village"`
	District     string    `json:"district"`
	Province     string    `json:"province"`
	Nationality  string    `json:"nationality"`
}

type EmploymentDetails struct {
	CompanyDepartment string    `json:"company_department"`
	FileNumber        string    `json:"file_number"`
	Position          string    `json:"position"`
	PostalAddress     string    `json:"postal_address"`
	Phone             string    `json:"phone"`
	DateEmployed      time.Time `json:"date_employed"`
	Paymaster         string    `json:"paymaster"`
}

type ResidentialAddress struct {
	Lot                string `json:"lot"`
	Section            string `json:"section"`
	Suburb             string `json:"suburb"`
	StreetName         string `json:"street_name"`
	MaritalStatus      string `json:"marital_status"`
	SpouseLastName     string `json:"spouse_last_name,omitempty"`
	SpouseFirstName    string `json:"spouse_first_name,omitempty"`
	SpouseEmployerName string `json:"spouse_employer_name,omitempty"`
	SpouseContact      string `json:"spouse_contact,omitempty"`
}

type LoanProduct struct {
	Purposes       []constants.Purpose `json:"purposes"`
	PrimaryPurpose constants.Purpose   `json:"primary_purpose"`
	Description    string              `json:"description,omitempty"`
}

type FinancialDetails struct {
	LoanAmount           decimal.Decimal `json:"loan_amount"`
	FortnightlyRepayment decimal.Decimal `json:"fortnightly_repayment"`
	NumberOfFortnights   int64           `json:"number_of_fortnights"`
	TotalLoanRepayable   decimal.Decimal `json:"total_loan_repayable"`
	GrossSalary          decimal.Decimal `json:"gross_salary"`
	NetSalary            decimal.Decimal `json:"net_salary"`
}

type FundingDetails struct {
	Bank          string `json:"bank"`
	Branch        string `json:"branch"`
	BSBCode       string `json:"bsb_code"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
}
