package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newIntake(t *testing.T) (*Intake, repository.DocumentRepository) {
	t.Helper()
	ctx := context.Background()
	drv, err := repository.OpenSQLite(ctx, repository.MemoryDSN("ingest_"+uuid.NewString()), quietLogger())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = drv.Close() })
	if err := repository.Migrate(ctx, drv, quietLogger()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	docs := repository.NewDocumentRepository(drv, quietLogger())
	return NewIntake(docs, quietLogger()), docs
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestRegister_CreatesPendingDocument(t *testing.T) {
	ctx := context.Background()
	in, docs := newIntake(t)
	owner := uuid.New()
	p := writeFile(t, t.TempDir(), "form.png", "png-bytes")

	res, err := in.Register(ctx, &owner, constants.DocLoanApplication, p)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Deduplicated || res.DocumentID == uuid.Nil || len(res.HashHex) != 64 {
		t.Fatalf("unexpected result: %+v", res)
	}

	doc, err := docs.GetByID(ctx, res.DocumentID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.OCRStatus != constants.OCRStatusPending || doc.OwnerID == nil || *doc.OwnerID != owner {
		t.Fatalf("stored document = %+v", doc)
	}
	if doc.DocumentType != constants.DocLoanApplication {
		t.Fatalf("document_type = %s", doc.DocumentType)
	}
}

func TestRegister_DeduplicatesByContent(t *testing.T) {
	ctx := context.Background()
	in, _ := newIntake(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", "same")
	b := writeFile(t, dir, "copy/b.jpg", "same")

	first, err := in.Register(ctx, nil, constants.DocPayslip, a)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	second, err := in.Register(ctx, nil, constants.DocPayslip, b)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !second.Deduplicated || second.DocumentID != first.DocumentID {
		t.Fatalf("second = %+v, want dedup of %s", second, first.DocumentID)
	}
	if second.SourcePath != first.SourcePath {
		t.Fatalf("dedup should report the stored path %q, got %q", first.SourcePath, second.SourcePath)
	}
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	in, _ := newIntake(t)
	p := writeFile(t, t.TempDir(), "form.png", "x")

	tests := []struct {
		name    string
		docType constants.DocumentType
		path    string
	}{
		{name: "blank path", docType: constants.DocLoanApplication, path: "  "},
		{name: "unknown type", docType: constants.DocumentType("tax_return"), path: p},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := in.Register(ctx, nil, tt.docType, tt.path)
			if !common.IsValidationError(err) {
				t.Fatalf("error = %v, want validation error", err)
			}
		})
	}

	if _, err := in.Register(ctx, nil, constants.DocOther, filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file error = %v", err)
	}
}

func TestRegister_AcceptsAnyExtension(t *testing.T) {
	in, docs := newIntake(t)
	p := writeFile(t, t.TempDir(), "notes.docx", "word")
	res, err := in.Register(context.Background(), nil, constants.DocOther, p)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	doc, err := docs.GetByID(context.Background(), res.DocumentID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.OCRStatus != constants.OCRStatusPending {
		t.Fatalf("status = %s, want pending", doc.OCRStatus)
	}
}

func TestRegisterDirectory(t *testing.T) {
	ctx := context.Background()
	in, _ := newIntake(t)
	root := t.TempDir()
	writeFile(t, root, "one.png", "1")
	writeFile(t, root, "two.PDF", "2")
	writeFile(t, root, "nested/three.jpeg", "3")
	writeFile(t, root, "nested/dup.jpeg", "3")
	writeFile(t, root, "notes.txt", "ignored")
	writeFile(t, root, ".hidden/four.png", "4")
	writeFile(t, root, ".five.png", "5")

	results, stats, err := in.RegisterDirectory(ctx, nil, constants.DocLoanApplication, root, true)
	if err != nil {
		t.Fatalf("RegisterDirectory: %v", err)
	}
	if stats.Matched != 4 || stats.Succeeded != 4 || stats.Deduplicated != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}

	_, again, err := in.RegisterDirectory(ctx, nil, constants.DocLoanApplication, root, false)
	if err != nil {
		t.Fatalf("RegisterDirectory: %v", err)
	}
	if again.Matched != 6 || again.Deduplicated != 4 {
		t.Fatalf("second walk stats = %+v", again)
	}

	if _, _, err := in.RegisterDirectory(ctx, nil, constants.DocLoanApplication, "", true); err == nil {
		t.Fatalf("empty root accepted")
	}
}

func TestAllowedExtAndHidden(t *testing.T) {
	for ext, want := range map[string]bool{".png": true, "JPG": true, ".pdf": true, ".tiff": false, "": false} {
		if got := AllowedExt(ext); got != want {
			t.Errorf("AllowedExt(%q) = %v, want %v", ext, got, want)
		}
	}
	if !IsHidden("/inbox/.DS_Store") || IsHidden("/inbox/form.png") {
		t.Errorf("IsHidden misclassified")
	}
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	existing := writeFile(t, root, "existing.png", "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond}, quietLogger())
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for watcher event")
			return ""
		}
	}

	if got := next(); got != existing {
		t.Fatalf("initial scan emitted %q, want %q", got, existing)
	}

	writeFile(t, root, "ignored.txt", "x")
	created := writeFile(t, root, "new.jpg", "y")
	if got := next(); got != created {
		t.Fatalf("watcher emitted %q, want %q", got, created)
	}

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}, quietLogger()); err == nil {
		t.Fatalf("expected error without roots")
	}
}
