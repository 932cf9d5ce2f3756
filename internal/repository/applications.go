package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/entity"
)

const (
	tableApplications = "loan_applications"
	tablePersonal     = "personal_details"
	tableEmployment   = "employment_details"
	tableResidential  = "residential_addresses"
	tableProduct      = "loan_products"
	tableFinancial    = "financial_details"
	tableFunding      = "funding_details"
)

// ApplicationRepository persists loan applications together with their
// sub-records.
type ApplicationRepository interface {
	// CreateWithRecords inserts app and every non-nil sub-record in one
	// transaction. When documentID is set the document is linked to the new
	// application inside the same transaction.
	CreateWithRecords(ctx context.Context, app *entity.LoanApplication, documentID *uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.LoanApplication, error)
	List(ctx context.Context, from, to time.Time) ([]*entity.LoanApplication, error)
	// Reassign sets the owner of an application and its source document.
	Reassign(ctx context.Context, applicationID uuid.UUID, documentID *uuid.UUID, ownerID uuid.UUID) error
}

type applicationRepo struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewApplicationRepository(drv *entsql.Driver, logger *slog.Logger) ApplicationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &applicationRepo{drv: drv, logger: logger}
}

func (r *applicationRepo) CreateWithRecords(ctx context.Context, app *entity.LoanApplication, documentID *uuid.UUID) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}
	if app.Status == "" {
		app.Status = constants.ApplicationStatusPending
	}

	b := entsql.Dialect(r.drv.Dialect())
	err := WithTx(ctx, r.drv, func(tx dialect.Tx) error {
		ins := b.Insert(tableApplications).
			Columns("id", "status", "created_at", "owner_id").
			Values(app.ID, string(app.Status), app.CreatedAt, nullUUID(app.OwnerID))
		if err := execQ(ctx, tx, ins); err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		for _, q := range subRecordInserts(b, app) {
			if err := execQ(ctx, tx, q.ins); err != nil {
				return fmt.Errorf("insert %s: %w", q.table, err)
			}
		}
		if documentID != nil {
			upd := b.Update(tableDocuments).Set("application_id", app.ID).Where(entsql.EQ("id", *documentID))
			n, err := execAffected(ctx, tx, upd)
			if err != nil {
				return fmt.Errorf("link document: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("link document %s: %w", *documentID, common.ErrNotFound)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to create loan application", "application_id", app.ID, "error", err)
		return err
	}
	r.logger.Debug("loan application created", "application_id", app.ID)
	return nil
}

type subRecordInsert struct {
	table string
	ins   *entsql.InsertBuilder
}

func subRecordInserts(b *entsql.DialectBuilder, app *entity.LoanApplication) []subRecordInsert {
	var out []subRecordInsert
	add := func(table string, cols []string, vals ...any) {
		ins := b.Insert(table).
			Columns(append([]string{"id", "application_id"}, cols...)...).
			Values(append([]any{uuid.New(), app.ID}, vals...)...)
		out = append(out, subRecordInsert{table: table, ins: ins})
	}

	if p := app.Personal; p != nil {
		add(tablePersonal, personalColumns,
			p.Surname, p.GivenName, p.DateOfBirth, p.Gender, p.MobileNumber, p.Email,
			p.Village, p.District, p.Province, p.Nationality)
	}
	if e := app.Employment; e != nil {
		add(tableEmployment, employmentColumns,
			e.CompanyDepartment, e.FileNumber, e.Position, e.PostalAddress, e.Phone, e.DateEmployed, e.Paymaster)
	}
	if a := app.Residential; a != nil {
		add(tableResidential, residentialColumns,
			a.Lot, a.Section, a.Suburb, a.StreetName, a.MaritalStatus,
			nullString(a.SpouseLastName), nullString(a.SpouseFirstName),
			nullString(a.SpouseEmployerName), nullString(a.SpouseContact))
	}
	if p := app.Product; p != nil {
		names := make([]string, 0, len(p.Purposes))
		for _, pp := range p.Purposes {
			names = append(names, string(pp))
		}
		purposes, _ := json.Marshal(names)
		add(tableProduct, productColumns, string(purposes), string(p.PrimaryPurpose), nullString(p.Description))
	}
	if f := app.Financial; f != nil {
		add(tableFinancial, financialColumns,
			f.LoanAmount, f.FortnightlyRepayment, f.NumberOfFortnights,
			f.TotalLoanRepayable, f.GrossSalary, f.NetSalary)
	}
	if f := app.Funding; f != nil {
		add(tableFunding, fundingColumns,
			f.Bank, f.Branch, f.BSBCode, f.AccountName, f.AccountNumber, f.AccountType)
	}
	return out
}

var (
	personalColumns = []string{
		"surname", "given_name", "date_of_birth", "gender", "mobile_number", "email",
		"village", "district", "province", "nationality",
	}
	employmentColumns = []string{
		"company_department", "file_number", "position", "postal_address", "phone", "date_employed", "paymaster",
	}
	residentialColumns = []string{
		"lot", "section", "suburb", "street_name", "marital_status",
		"spouse_last_name", "spouse_first_name", "spouse_employer_name", "spouse_contact",
	}
	productColumns   = []string{"purposes", "primary_purpose", "description"}
	financialColumns = []string{
		"loan_amount", "fortnightly_repayment", "number_of_fortnights",
		"total_loan_repayable", "gross_salary", "net_salary",
	}
	fundingColumns = []string{"bank", "branch", "bsb_code", "account_name", "account_number", "account_type"}
)

func (r *applicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.LoanApplication, error) {
	b := entsql.Dialect(r.drv.Dialect())
	q := b.Select("id", "status", "created_at", "owner_id").From(b.Table(tableApplications)).Where(entsql.EQ("id", id))
	apps, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	if len(apps) == 0 {
		return nil, fmt.Errorf("get application %s: %w", id, common.ErrNotFound)
	}
	return apps[0], nil
}

// List returns applications created in [from, to], newest first. A zero
// bound is open.
func (r *applicationRepo) List(ctx context.Context, from, to time.Time) ([]*entity.LoanApplication, error) {
	b := entsql.Dialect(r.drv.Dialect())
	q := b.Select("id", "status", "created_at", "owner_id").From(b.Table(tableApplications))
	var preds []*entsql.Predicate
	if !from.IsZero() {
		preds = append(preds, entsql.GTE("created_at", from))
	}
	if !to.IsZero() {
		preds = append(preds, entsql.LTE("created_at", to))
	}
	if len(preds) > 0 {
		q.Where(entsql.And(preds...))
	}
	q.OrderBy(entsql.Desc("created_at"))

	apps, err := r.query(ctx, q)
	if err != nil {
		r.logger.Error("failed to list applications", "error", err)
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func (r *applicationRepo) Reassign(ctx context.Context, applicationID uuid.UUID, documentID *uuid.UUID, ownerID uuid.UUID) error {
	b := entsql.Dialect(r.drv.Dialect())
	err := WithTx(ctx, r.drv, func(tx dialect.Tx) error {
		return reassignTx(ctx, tx, b, applicationID, documentID, ownerID)
	})
	if err != nil {
		r.logger.Error("failed to reassign application", "application_id", applicationID, "error", err)
		return err
	}
	return nil
}

func reassignTx(ctx context.Context, tx dialect.ExecQuerier, b *entsql.DialectBuilder, applicationID uuid.UUID, documentID *uuid.UUID, ownerID uuid.UUID) error {
	upd := b.Update(tableApplications).Set("owner_id", ownerID).Where(entsql.EQ("id", applicationID))
	n, err := execAffected(ctx, tx, upd)
	if err != nil {
		return fmt.Errorf("set application owner: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("application %s: %w", applicationID, common.ErrNotFound)
	}
	if documentID == nil {
		return nil
	}
	upd = b.Update(tableDocuments).Set("owner_id", ownerID).Where(entsql.EQ("id", *documentID))
	if n, err = execAffected(ctx, tx, upd); err != nil {
		return fmt.Errorf("set document owner: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", *documentID, common.ErrNotFound)
	}
	return nil
}

// query loads the parent rows first, then the sub-records of each.
func (r *applicationRepo) query(ctx context.Context, q *entsql.Selector) ([]*entity.LoanApplication, error) {
	var apps []*entity.LoanApplication
	err := queryQ(ctx, r.drv, q, func(rows *entsql.Rows) error {
		for rows.Next() {
			var (
				app    entity.LoanApplication
				status string
				owner  uuid.NullUUID
			)
			if err := rows.Scan(&app.ID, &status, &app.CreatedAt, &owner); err != nil {
				return err
			}
			app.Status = constants.ApplicationStatus(status)
			app.OwnerID = uuidPtr(owner)
			apps = append(apps, &app)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		if err := r.loadRecords(ctx, app); err != nil {
			return nil, err
		}
	}
	return apps, nil
}

func (r *applicationRepo) loadRecords(ctx context.Context, app *entity.LoanApplication) error {
	b := entsql.Dialect(r.drv.Dialect())
	sel := func(table string, cols []string) *entsql.Selector {
		return b.Select(cols...).From(b.Table(table)).Where(entsql.EQ("application_id", app.ID))
	}

	err := queryQ(ctx, r.drv, sel(tablePersonal, personalColumns), func(rows *entsql.Rows) error {
		if !rows.Next() {
			return nil
		}
		var p entity.PersonalDetails
		if err := rows.Scan(&p.Surname, &p.GivenName, &p.DateOfBirth, &p.Gender, &p.MobileNumber, &p.Email,
			&p.Village, &p.District, &p.Province, &p.Nationality); err != nil {
			return err
		}
		app.Personal = &p
		return nil
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", tablePersonal, err)
	}

	err = queryQ(ctx, r.drv, sel(tableEmployment, employmentColumns), func(rows *entsql.Rows) error {
		if !rows.Next() {
			return nil
		}
		var e entity.EmploymentDetails
		if err := rows.Scan(&e.CompanyDepartment, &e.FileNumber, &e.Position, &e.PostalAddress, &e.Phone,
			&e.DateEmployed, &e.Paymaster); err != nil {
			return err
		}
		app.Employment = &e
		return nil
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", tableEmployment, err)
	}

	err = queryQ(ctx, r.drv, sel(tableResidential, residentialColumns), func(rows *entsql.Rows) error {
		if !rows.Next() {
			return nil
		}
		var (
			a                                 entity.ResidentialAddress
			spLast, spFirst, spEmp, spContact sql.NullString
		)
		if err := rows.Scan(&a.Lot, &a.Section, &a.Suburb, &a.StreetName, &a.MaritalStatus,
			&spLast, &spFirst, &spEmp, &spContact); err != nil {
			return err
		}
		a.SpouseLastName, a.SpouseFirstName = spLast.String, spFirst.String
		a.SpouseEmployerName, a.SpouseContact = spEmp.String, spContact.String
		app.Residential = &a
		return nil
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", tableResidential, err)
	}

	err = queryQ(ctx, r.drv, sel(tableProduct, productColumns), func(rows *entsql.Rows) error {
		if !rows.Next() {
			return nil
		}
		var (
			purposes, description sql.NullString
			primary               string
		)
		if err := rows.Scan(&purposes, &primary, &description); err != nil {
			return err
		}
		var names []string
		if purposes.Valid && purposes.String != "" {
			if err := json.Unmarshal([]byte(purposes.String), &names); err != nil {
				return fmt.Errorf("decode purposes: %w", err)
			}
		}
		p := entity.LoanProduct{
			PrimaryPurpose: constants.Purpose(primary),
			Description:    description.String,
		}
		for _, n := range names {
			p.Purposes = append(p.Purposes, constants.Purpose(n))
		}
		app.Product = &p
		return nil
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", tableProduct, err)
	}

	err = queryQ(ctx, r.drv, sel(tableFinancial, financialColumns), func(rows *entsql.Rows) error {
		if !rows.Next() {
			return nil
		}
		var f entity.FinancialDetails
		if err := rows.Scan(&f.LoanAmount, &f.FortnightlyRepayment, &f.NumberOfFortnights,
			&f.TotalLoanRepayable, &f.GrossSalary, &f.NetSalary); err != nil {
			return err
		}
		app.Financial = &f
		return nil
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", tableFinancial, err)
	}

	err = queryQ(ctx, r.drv, sel(tableFunding, fundingColumns), func(rows *entsql.Rows) error {
		if !rows.Next() {
			return nil
		}
		var f entity.FundingDetails
		if err := rows.Scan(&f.Bank, &f.Branch, &f.BSBCode, &f.AccountName, &f.AccountNumber, &f.AccountType); err != nil {
			return err
		}
		app.Funding = &f
		return nil
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", tableFunding, err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
