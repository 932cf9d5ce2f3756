package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/entity"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newApps(t *testing.T) repository.ApplicationRepository {
	t.Helper()
	ctx := context.Background()
	drv, err := repository.OpenSQLite(ctx, repository.MemoryDSN("export_"+uuid.NewString()), quietLogger())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = drv.Close() })
	if err := repository.Migrate(ctx, drv, quietLogger()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return repository.NewApplicationRepository(drv, quietLogger())
}

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

func TestExportApplicationsXLSX(t *testing.T) {
	ctx := context.Background()
	apps := newApps(t)

	full := &entity.LoanApplication{
		CreatedAt:  time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC),
		Personal:   &entity.PersonalDetails{Surname: "Doe", GivenName: "Jane", DateOfBirth: time.Date(1990, 3, 5, 0, 0, 0, 0, time.UTC), Gender: "F"},
		Employment: &entity.EmploymentDetails{CompanyDepartment: "Department of Finance", DateEmployed: time.Date(2015, 2, 14, 0, 0, 0, 0, time.UTC)},
		Product:    &entity.LoanProduct{Purposes: []constants.Purpose{constants.PurposeMedical}, PrimaryPurpose: constants.PurposeMedical},
		Financial:  &entity.FinancialDetails{LoanAmount: decimal.RequireFromString("12500.50")},
		Funding:    &entity.FundingDetails{Bank: "BSP", AccountType: "savings"},
	}
	bare := &entity.LoanApplication{
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Funding:   &entity.FundingDetails{Bank: "Kina Bank", AccountType: "savings"},
	}
	old := &entity.LoanApplication{
		CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Funding:   &entity.FundingDetails{Bank: "ANZ", AccountType: "savings"},
	}
	for _, a := range []*entity.LoanApplication{full, bare, old} {
		if err := apps.CreateWithRecords(ctx, a, nil); err != nil {
			t.Fatalf("CreateWithRecords: %v", err)
		}
	}

	svc := NewService(apps, quietLogger())

	all, err := svc.ExportApplicationsXLSX(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ExportApplicationsXLSX: %v", err)
	}
	rows := readRows(t, all)
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	if rows[0][0] != "Submitted" || rows[0][7] != "Application ID" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][7] != bare.ID.String() {
		t.Fatalf("newest application should come first, got %v", rows[1])
	}

	from := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	window, err := svc.ExportApplicationsXLSX(ctx, &from, &to)
	if err != nil {
		t.Fatalf("ExportApplicationsXLSX: %v", err)
	}
	rows = readRows(t, window)
	if len(rows) != 2 {
		t.Fatalf("window rows = %d, want header + 1", len(rows))
	}
	want := []string{"2024-05-02", "Jane Doe", "Department of Finance", "", "medical", "BSP", "pending", full.ID.String()}
	for i, w := range want {
		if i == 3 {
			continue
		}
		if rows[1][i] != w {
			t.Errorf("col %d = %q, want %q", i+1, rows[1][i], w)
		}
	}

	f, err := excelize.OpenReader(bytes.NewReader(window))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	amount, err := f.GetCellValue(sheet, "D2", excelize.Options{RawCellValue: true})
	if err != nil || amount != "12500.5" {
		t.Fatalf("loan amount cell = %q (err %v), want 12500.5", amount, err)
	}
}

func TestExportApplicationsXLSX_Empty(t *testing.T) {
	svc := NewService(newApps(t), quietLogger())
	data, err := svc.ExportApplicationsXLSX(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ExportApplicationsXLSX: %v", err)
	}
	rows := readRows(t, data)
	if len(rows) != 1 || len(rows[0]) != len(headers) {
		t.Fatalf("rows = %v, want header only", rows)
	}
}
