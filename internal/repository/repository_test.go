package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/entity"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDriver(t *testing.T) *entsql.Driver {
	t.Helper()
	ctx := context.Background()
	drv, err := OpenSQLite(ctx, MemoryDSN("repo_"+uuid.NewString()), quietLogger())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = drv.Close() })
	if err := Migrate(ctx, drv, quietLogger()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return drv
}

func TestDocumentRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	drv := newTestDriver(t)
	docs := NewDocumentRepository(drv, quietLogger())

	doc := &entity.UploadedDocument{
		DocumentType: constants.DocLoanApplication,
		StoragePath:  "/uploads/form.png",
		ContentHash:  []byte{0xde, 0xad, 0xbe, 0xef},
	}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if doc.ID == uuid.Nil || doc.OCRStatus != constants.OCRStatusPending {
		t.Fatalf("Create did not fill defaults: %+v", doc)
	}

	got, err := docs.GetByHash(ctx, []byte{0xde, 0xad, 0xbe, 0xef})
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if got.ID != doc.ID || got.StoragePath != doc.StoragePath {
		t.Fatalf("GetByHash = %+v, want %s", got, doc.ID)
	}

	fields := json.RawMessage(`{"version":1,"fields":{"surname":"Doe"},"purposes":[]}`)
	if err := docs.SetOCRResult(ctx, doc.ID, "Surname: Doe", fields); err != nil {
		t.Fatalf("SetOCRResult: %v", err)
	}
	got, err = docs.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.OCRStatus != constants.OCRStatusCompleted {
		t.Errorf("status = %s, want completed", got.OCRStatus)
	}
	if got.RawOCRText == nil || *got.RawOCRText != "Surname: Doe" {
		t.Errorf("raw text = %v", got.RawOCRText)
	}
	if string(got.ExtractedFields) != string(fields) {
		t.Errorf("extracted fields = %s", got.ExtractedFields)
	}
	if got.ProcessedAt == nil {
		t.Errorf("processed_at not set")
	}

	pending, err := docs.ListByStatus(ctx, constants.OCRStatusPending, 0)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}

func TestDocumentRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	docs := NewDocumentRepository(newTestDriver(t), quietLogger())

	if _, err := docs.GetByID(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetByID error = %v, want ErrNotFound", err)
	}
	if err := docs.SetStatus(ctx, uuid.New(), constants.OCRStatusFailed); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("SetStatus error = %v, want ErrNotFound", err)
	}
}

func fullApplication() *entity.LoanApplication {
	return &entity.LoanApplication{
		Personal: &entity.PersonalDetails{
			Surname:     "Doe",
			GivenName:   "Jane",
			DateOfBirth: time.Date(1990, 3, 5, 0, 0, 0, 0, time.UTC),
			Gender:      "F",
		},
		Employment:  &entity.EmploymentDetails{CompanyDepartment: "Finance", DateEmployed: time.Date(2015, 2, 14, 0, 0, 0, 0, time.UTC)},
		Residential: &entity.ResidentialAddress{Suburb: "Boroko", MaritalStatus: "married", SpouseFirstName: "John"},
		Product: &entity.LoanProduct{
			Purposes:       []constants.Purpose{constants.PurposeMedical, constants.PurposeFuneral},
			PrimaryPurpose: constants.PurposeMedical,
			Description:    "medical bills",
		},
		Financial: &entity.FinancialDetails{
			LoanAmount:         decimal.RequireFromString("12500"),
			NetSalary:          decimal.RequireFromString("1850.75"),
			NumberOfFortnights: 60,
		},
		Funding: &entity.FundingDetails{Bank: "BSP", AccountType: "savings"},
	}
}

func TestApplicationRepository_CreateWithRecords(t *testing.T) {
	ctx := context.Background()
	drv := newTestDriver(t)
	docs := NewDocumentRepository(drv, quietLogger())
	apps := NewApplicationRepository(drv, quietLogger())

	doc := &entity.UploadedDocument{DocumentType: constants.DocLoanApplication, StoragePath: "a.png"}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("Create document: %v", err)
	}

	app := fullApplication()
	if err := apps.CreateWithRecords(ctx, app, &doc.ID); err != nil {
		t.Fatalf("CreateWithRecords: %v", err)
	}

	got, err := apps.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != constants.ApplicationStatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.Personal == nil || got.Personal.Surname != "Doe" || !got.Personal.DateOfBirth.Equal(app.Personal.DateOfBirth) {
		t.Errorf("personal = %+v", got.Personal)
	}
	if got.Residential == nil || got.Residential.SpouseFirstName != "John" || got.Residential.SpouseLastName != "" {
		t.Errorf("residential = %+v", got.Residential)
	}
	if got.Product == nil || len(got.Product.Purposes) != 2 || got.Product.PrimaryPurpose != constants.PurposeMedical {
		t.Errorf("product = %+v", got.Product)
	}
	if got.Financial == nil || !got.Financial.NetSalary.Equal(decimal.RequireFromString("1850.75")) || got.Financial.NumberOfFortnights != 60 {
		t.Errorf("financial = %+v", got.Financial)
	}
	if got.Funding == nil || got.Funding.Bank != "BSP" {
		t.Errorf("funding = %+v", got.Funding)
	}

	linked, err := docs.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID document: %v", err)
	}
	if linked.ApplicationID == nil || *linked.ApplicationID != app.ID {
		t.Errorf("document application_id = %v, want %s", linked.ApplicationID, app.ID)
	}
}

func TestApplicationRepository_CreateRollsBack(t *testing.T) {
	ctx := context.Background()
	drv := newTestDriver(t)
	apps := NewApplicationRepository(drv, quietLogger())

	missing := uuid.New()
	app := fullApplication()
	if err := apps.CreateWithRecords(ctx, app, &missing); err == nil {
		t.Fatal("expected error linking a missing document")
	}

	counts, err := TableCounts(ctx, drv)
	if err != nil {
		t.Fatalf("TableCounts: %v", err)
	}
	for table, n := range counts {
		if n != 0 {
			t.Errorf("%s has %d rows after rollback", table, n)
		}
	}
}

func TestApplicationRepository_ListAndReassign(t *testing.T) {
	ctx := context.Background()
	drv := newTestDriver(t)
	apps := NewApplicationRepository(drv, quietLogger())
	accounts := NewAccountRepository(drv, quietLogger())

	older := &entity.LoanApplication{CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &entity.LoanApplication{CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	for _, a := range []*entity.LoanApplication{older, newer} {
		if err := apps.CreateWithRecords(ctx, a, nil); err != nil {
			t.Fatalf("CreateWithRecords: %v", err)
		}
	}

	all, err := apps.List(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != newer.ID {
		t.Fatalf("List order wrong: %d results", len(all))
	}

	recent, err := apps.List(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	if err != nil {
		t.Fatalf("List from: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != newer.ID {
		t.Fatalf("List from = %d results", len(recent))
	}

	acc := &entity.Account{Username: "jane", PasswordHash: "x"}
	if err := accounts.Insert(ctx, acc); err != nil {
		t.Fatalf("Insert account: %v", err)
	}
	if err := apps.Reassign(ctx, older.ID, nil, acc.ID); err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	got, err := apps.GetByID(ctx, older.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.OwnerID == nil || *got.OwnerID != acc.ID {
		t.Errorf("owner = %v, want %s", got.OwnerID, acc.ID)
	}
	if err := apps.Reassign(ctx, uuid.New(), nil, acc.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Reassign missing = %v, want ErrNotFound", err)
	}
}

func TestAccountRepository_InsertAndLookup(t *testing.T) {
	ctx := context.Background()
	accounts := NewAccountRepository(newTestDriver(t), quietLogger())

	email := "jane.doe@example.com"
	first := &entity.Account{Username: "jane.doe", Email: &email, PasswordHash: "h", AutoProvisioned: true, MustChangePassword: true}
	if err := accounts.Insert(ctx, first); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if first.ClientNumber != "KNRFS00001" {
		t.Errorf("client number = %s, want KNRFS00001", first.ClientNumber)
	}

	second := &entity.Account{Username: "jane.doe1", PasswordHash: "h"}
	if err := accounts.Insert(ctx, second); err != nil {
		t.Fatalf("Insert second: %v", err)
	}
	if second.ClientNumber != "KNRFS00002" {
		t.Errorf("client number = %s, want KNRFS00002", second.ClientNumber)
	}

	dup := &entity.Account{Username: "jane.doe", PasswordHash: "h"}
	if err := accounts.Insert(ctx, dup); !errors.Is(err, ErrUniqueViolation) {
		t.Fatalf("duplicate username error = %v, want ErrUniqueViolation", err)
	}

	got, err := accounts.GetByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != first.ID || !got.AutoProvisioned || !got.MustChangePassword || got.Role != constants.RoleBorrower {
		t.Errorf("GetByEmail = %+v", got)
	}
	if _, err := accounts.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetByEmail missing = %v, want ErrNotFound", err)
	}

	names, err := accounts.UsernamesWithPrefix(ctx, "jane.doe")
	if err != nil {
		t.Fatalf("UsernamesWithPrefix: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("UsernamesWithPrefix = %v, want 2 names", names)
	}

	next, err := accounts.NextClientNumber(ctx)
	if err != nil {
		t.Fatalf("NextClientNumber: %v", err)
	}
	if next != "KNRFS00003" {
		t.Errorf("NextClientNumber = %s, want KNRFS00003", next)
	}
}

func TestAccountRepository_InsertClaiming(t *testing.T) {
	ctx := context.Background()
	drv := newTestDriver(t)
	docs := NewDocumentRepository(drv, quietLogger())
	apps := NewApplicationRepository(drv, quietLogger())
	accounts := NewAccountRepository(drv, quietLogger())

	doc := &entity.UploadedDocument{DocumentType: constants.DocLoanApplication, StoragePath: "/uploads/claim.png"}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("Create document: %v", err)
	}
	app := fullApplication()
	if err := apps.CreateWithRecords(ctx, app, &doc.ID); err != nil {
		t.Fatalf("CreateWithRecords: %v", err)
	}

	missing := uuid.New()
	lost := &entity.Account{Username: "lost", PasswordHash: "h"}
	err := accounts.InsertClaiming(ctx, lost, Claim{ApplicationID: app.ID, DocumentID: &missing})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("InsertClaiming missing document = %v, want ErrNotFound", err)
	}
	if names, _ := accounts.UsernamesWithPrefix(ctx, "lost"); len(names) != 0 {
		t.Fatalf("account %v kept after the claim failed", names)
	}
	if got, _ := apps.GetByID(ctx, app.ID); got.OwnerID != nil {
		t.Fatalf("application owner = %s after rollback", *got.OwnerID)
	}

	acc := &entity.Account{Username: "mary", PasswordHash: "h"}
	if err := accounts.InsertClaiming(ctx, acc, Claim{ApplicationID: app.ID, DocumentID: &doc.ID}); err != nil {
		t.Fatalf("InsertClaiming: %v", err)
	}
	if acc.ClientNumber != "KNRFS00001" {
		t.Errorf("client number = %s, want KNRFS00001", acc.ClientNumber)
	}
	gotApp, err := apps.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetByID application: %v", err)
	}
	if gotApp.OwnerID == nil || *gotApp.OwnerID != acc.ID {
		t.Errorf("application owner = %v, want %s", gotApp.OwnerID, acc.ID)
	}
	gotDoc, err := docs.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID document: %v", err)
	}
	if gotDoc.OwnerID == nil || *gotDoc.OwnerID != acc.ID {
		t.Errorf("document owner = %v, want %s", gotDoc.OwnerID, acc.ID)
	}
}
