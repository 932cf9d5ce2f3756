package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/notify"
	"github.com/joseph-ayodele/loan-intake/internal/ocr"
	"github.com/joseph-ayodele/loan-intake/internal/pipeline"
	"github.com/joseph-ayodele/loan-intake/internal/provision"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

const form = `Surname: Kila
Given Name: Mary
Date of Birth: 12/08/1985
Email: mary.kila@example.com
Company/Department: PNG Power
Date Employed: 01/02/2010
Lot: 3
Suburb: Gerehu
Marital Status: Single
☒ School Fees
Loan Amount: K 4,000.00
Net Salary: 1,200.00
Bank: Kina Bank
Account Number: 220011
`

type fixedText string

func (f fixedText) Extract(_ context.Context, _ string) (ocr.ExtractionResult, error) {
	return ocr.ExtractionResult{Text: string(f), SourceType: constants.IMAGE, Method: "stub"}, nil
}

func TestNew_EndToEnd(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	drv, err := repository.OpenSQLite(ctx, repository.MemoryDSN("app_"+uuid.NewString()), logger)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = drv.Close() })
	if err := repository.Migrate(ctx, drv, logger); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	cfg := common.LoadConfig()
	pub, err := NewPublisher(common.BrokerConfig{}, logger)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	if _, ok := pub.(notify.LogPublisher); !ok {
		t.Fatalf("publisher = %T, want LogPublisher without a broker URL", pub)
	}
	a := New(drv, cfg, fixedText(form), pub, logger)

	path := filepath.Join(t.TempDir(), "form.png")
	if err := os.WriteFile(path, []byte("scan"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	reg, err := a.Intake.Register(ctx, nil, constants.DocLoanApplication, path)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	out, err := a.Processor.Process(ctx, pipeline.Request{DocumentID: reg.DocumentID, Identity: provision.Identity{}})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Status != constants.OutcomeComplete || out.AccountID == nil {
		t.Fatalf("outcome = %+v", out)
	}

	acct, err := a.Accounts.GetByID(ctx, *out.AccountID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if acct.Username != "mary.kila" {
		t.Fatalf("username = %q", acct.Username)
	}

	data, err := a.Export.ExportApplicationsXLSX(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ExportApplicationsXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Applications")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "Mary Kila" || rows[1][4] != "school fees" {
		t.Fatalf("export rows = %v", rows)
	}
}

func TestOpenDatabase(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := OpenDatabase(ctx, &common.Config{}, true, logger)
	if err != nil {
		t.Fatalf("OpenDatabase(inmem): %v", err)
	}
	counts, err := repository.TableCounts(ctx, db.Driver)
	if err != nil {
		t.Fatalf("TableCounts: %v", err)
	}
	if len(counts) == 0 || db.Pool != nil {
		t.Fatalf("counts = %v, pool = %v", counts, db.Pool)
	}
	db.Close()

	_, err = OpenDatabase(ctx, &common.Config{}, false, logger)
	if common.ErrorCode(err) != common.CodeConfig {
		t.Fatalf("missing DSN error = %v, want %s", err, common.CodeConfig)
	}
}
