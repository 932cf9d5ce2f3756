package migrate

import (
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	moneyType = map[string]string{dialect.Postgres: "numeric(12,2)", dialect.SQLite: "numeric"}
	textType  = map[string]string{dialect.Postgres: "text"}
	bytesType = map[string]string{dialect.Postgres: "bytea"}
)

var (
	// AccountsColumns holds the columns for the "accounts" table.
	AccountsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "username", Type: field.TypeString, Unique: true},
		{Name: "email", Type: field.TypeString, Unique: true, Nullable: true},
		{Name: "password_hash", Type: field.TypeString},
		{Name: "role", Type: field.TypeString, Default: "borrower"},
		{Name: "client_number", Type: field.TypeString, Unique: true},
		{Name: "auto_provisioned", Type: field.TypeBool, Default: false},
		{Name: "must_change_password", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
	}
	// AccountsTable holds the schema information for the "accounts" table.
	AccountsTable = &schema.Table{
		Name:       "accounts",
		Columns:    AccountsColumns,
		PrimaryKey: []*schema.Column{AccountsColumns[0]},
	}

	// LoanApplicationsColumns holds the columns for the "loan_applications" table.
	LoanApplicationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "status", Type: field.TypeString, Default: "pending"},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "owner_id", Type: field.TypeUUID, Nullable: true},
	}
	// LoanApplicationsTable holds the schema information for the "loan_applications" table.
	LoanApplicationsTable = &schema.Table{
		Name:       "loan_applications",
		Columns:    LoanApplicationsColumns,
		PrimaryKey: []*schema.Column{LoanApplicationsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "loan_applications_accounts_applications",
				Columns:    []*schema.Column{LoanApplicationsColumns[3]},
				RefColumns: []*schema.Column{AccountsColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
	}

	// UploadedDocumentsColumns holds the columns for the "uploaded_documents" table.
	UploadedDocumentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "document_type", Type: field.TypeString},
		{Name: "storage_path", Type: field.TypeString, SchemaType: textType},
		{Name: "content_hash", Type: field.TypeBytes, Nullable: true, SchemaType: bytesType},
		{Name: "uploaded_at", Type: field.TypeTime},
		{Name: "ocr_status", Type: field.TypeString, Default: "pending"},
		{Name: "raw_ocr_text", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "extracted_fields", Type: field.TypeJSON, Nullable: true},
		{Name: "processed_at", Type: field.TypeTime, Nullable: true},
		{Name: "owner_id", Type: field.TypeUUID, Nullable: true},
		{Name: "application_id", Type: field.TypeUUID, Nullable: true},
	}
	// UploadedDocumentsTable holds the schema information for the "uploaded_documents" table.
	UploadedDocumentsTable = &schema.Table{
		Name:       "uploaded_documents",
		Columns:    UploadedDocumentsColumns,
		PrimaryKey: []*schema.Column{UploadedDocumentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "uploaded_documents_accounts_documents",
				Columns:    []*schema.Column{UploadedDocumentsColumns[9]},
				RefColumns: []*schema.Column{AccountsColumns[0]},
				OnDelete:   schema.SetNull,
			},
			{
				Symbol:     "uploaded_documents_loan_applications_documents",
				Columns:    []*schema.Column{UploadedDocumentsColumns[10]},
				RefColumns: []*schema.Column{LoanApplicationsColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "uploadeddocument_content_hash",
				Unique:  false,
				Columns: []*schema.Column{UploadedDocumentsColumns[3]},
			},
		},
	}

	// PersonalDetailsColumns holds the columns for the "personal_details" table.
	PersonalDetailsColumns = subRecordColumns(
		&schema.Column{Name: "surname", Type: field.TypeString},
		&schema.Column{Name: "given_name", Type: field.TypeString},
		&schema.Column{Name: "date_of_birth", Type: field.TypeTime},
		&schema.Column{Name: "gender", Type: field.TypeString, Size: 1},
		&schema.Column{Name: "mobile_number", Type: field.TypeString},
		&schema.Column{Name: "email", Type: field.TypeString},
		&schema.Column{Name: "village", Type: field.TypeString},
		&schema.Column{Name: "district", Type: field.TypeString},
		&schema.Column{Name: "province", Type: field.TypeString},
		&schema.Column{Name: "nationality", Type: field.TypeString},
	)
	PersonalDetailsTable = subRecordTable("personal_details", PersonalDetailsColumns)

	// EmploymentDetailsColumns holds the columns for the "employment_details" table.
	EmploymentDetailsColumns = subRecordColumns(
		&schema.Column{Name: "company_department", Type: field.TypeString},
		&schema.Column{Name: "file_number", Type: field.TypeString},
		&schema.Column{Name: "position", Type: field.TypeString},
		&schema.Column{Name: "postal_address", Type: field.TypeString},
		&schema.Column{Name: "phone", Type: field.TypeString},
		&schema.Column{Name: "date_employed", Type: field.TypeTime},
		&schema.Column{Name: "paymaster", Type: field.TypeString},
	)
	EmploymentDetailsTable = subRecordTable("employment_details", EmploymentDetailsColumns)

	// ResidentialAddressesColumns holds the columns for the "residential_addresses" table.
	ResidentialAddressesColumns = subRecordColumns(
		&schema.Column{Name: "lot", Type: field.TypeString},
		&schema.Column{Name: "section", Type: field.TypeString},
		&schema.Column{Name: "suburb", Type: field.TypeString},
		&schema.Column{Name: "street_name", Type: field.TypeString},
		&schema.Column{Name: "marital_status", Type: field.TypeString},
		&schema.Column{Name: "spouse_last_name", Type: field.TypeString, Nullable: true},
		&schema.Column{Name: "spouse_first_name", Type: field.TypeString, Nullable: true},
		&schema.Column{Name: "spouse_employer_name", Type: field.TypeString, Nullable: true},
		&schema.Column{Name: "spouse_contact", Type: field.TypeString, Nullable: true},
	)
	ResidentialAddressesTable = subRecordTable("residential_addresses", ResidentialAddressesColumns)

	// LoanProductsColumns holds the columns for the "loan_products" table.
	LoanProductsColumns = subRecordColumns(
		&schema.Column{Name: "purposes", Type: field.TypeJSON},
		&schema.Column{Name: "primary_purpose", Type: field.TypeString},
		&schema.Column{Name: "description", Type: field.TypeString, Nullable: true, SchemaType: textType},
	)
	LoanProductsTable = subRecordTable("loan_products", LoanProductsColumns)

	// FinancialDetailsColumns holds the columns for the "financial_details" table.
	FinancialDetailsColumns = subRecordColumns(
		&schema.Column{Name: "loan_amount", Type: field.TypeFloat64, SchemaType: moneyType},
		&schema.Column{Name: "fortnightly_repayment", Type: field.TypeFloat64, SchemaType: moneyType},
		&schema.Column{Name: "number_of_fortnights", Type: field.TypeInt64},
		&schema.Column{Name: "total_loan_repayable", Type: field.TypeFloat64, SchemaType: moneyType},
		&schema.Column{Name: "gross_salary", Type: field.TypeFloat64, SchemaType: moneyType},
		&schema.Column{Name: "net_salary", Type: field.TypeFloat64, SchemaType: moneyType},
	)
	FinancialDetailsTable = subRecordTable("financial_details", FinancialDetailsColumns)

	// FundingDetailsColumns holds the columns for the "funding_details" table.
	FundingDetailsColumns = subRecordColumns(
		&schema.Column{Name: "bank", Type: field.TypeString},
		&schema.Column{Name: "branch", Type: field.TypeString},
		&schema.Column{Name: "bsb_code", Type: field.TypeString},
		&schema.Column{Name: "account_name", Type: field.TypeString},
		&schema.Column{Name: "account_number", Type: field.TypeString},
		&schema.Column{Name: "account_type", Type: field.TypeString},
	)
	FundingDetailsTable = subRecordTable("funding_details", FundingDetailsColumns)

	// Tables holds all the tables in the schema, parents first.
	Tables = []*schema.Table{
		AccountsTable,
		LoanApplicationsTable,
		UploadedDocumentsTable,
		PersonalDetailsTable,
		EmploymentDetailsTable,
		ResidentialAddressesTable,
		LoanProductsTable,
		FinancialDetailsTable,
		FundingDetailsTable,
	}
)

// subRecordColumns prefixes the id and the unique application link shared by
// every sub-record table.
func subRecordColumns(cols ...*schema.Column) []*schema.Column {
	return append([]*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "application_id", Type: field.TypeUUID, Unique: true},
	}, cols...)
}

func subRecordTable(name string, cols []*schema.Column) *schema.Table {
	return &schema.Table{
		Name:       name,
		Columns:    cols,
		PrimaryKey: []*schema.Column{cols[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     name + "_loan_applications_" + name,
				Columns:    []*schema.Column{cols[1]},
				RefColumns: []*schema.Column{LoanApplicationsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}
}

func init() {
	LoanApplicationsTable.ForeignKeys[0].RefTable = AccountsTable
	UploadedDocumentsTable.ForeignKeys[0].RefTable = AccountsTable
	UploadedDocumentsTable.ForeignKeys[1].RefTable = LoanApplicationsTable
	for _, t := range Tables[3:] {
		t.ForeignKeys[0].RefTable = LoanApplicationsTable
	}
}
