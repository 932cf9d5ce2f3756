package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/entity"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

// Intake stores files from the local filesystem as pending documents.
type Intake struct {
	Docs   repository.DocumentRepository
	Logger *slog.Logger
}

func NewIntake(docs repository.DocumentRepository, logger *slog.Logger) *Intake {
	if logger == nil {
		logger = slog.Default()
	}
	return &Intake{Docs: docs, Logger: logger}
}

// Register hashes path and stores it as a pending document. A file whose
// content was already registered returns the earlier document.
//
// The extension is not checked here; the pipeline records unsupported and
// invalid formats on the document itself.
func (i *Intake) Register(ctx context.Context, owner *uuid.UUID, docType constants.DocumentType, path string) (IngestionResult, error) {
	var out IngestionResult

	v := common.NewValidator().
		Field("path", path, common.Required).
		Field("document_type", string(docType), common.OneOf(constants.DocumentTypesAsStrings()...))
	if err := v.Error(); err != nil {
		return out, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		i.Logger.Error("abs path error", "path", path, "error", err)
		return out, err
	}

	sum, err := hashFile(abs)
	if err != nil {
		i.Logger.Error("hash error", "path", abs, "error", err)
		return out, err
	}

	existing, err := i.Docs.GetByHash(ctx, sum)
	switch {
	case err == nil:
		i.Logger.Info("document already registered", "path", abs, "document_id", existing.ID)
		return IngestionResult{
			SourcePath:   existing.StoragePath,
			DocumentID:   existing.ID,
			DocumentType: existing.DocumentType,
			Deduplicated: true,
			HashHex:      hex.EncodeToString(sum),
			UploadedAt:   existing.UploadedAt,
		}, nil
	case !errors.Is(err, common.ErrNotFound):
		return out, err
	}

	doc := &entity.UploadedDocument{
		OwnerID:      owner,
		DocumentType: docType,
		StoragePath:  abs,
		ContentHash:  sum,
	}
	if err := i.Docs.Create(ctx, doc); err != nil {
		return out, err
	}
	i.Logger.Info("document registered", "path", abs, "document_id", doc.ID, "document_type", docType)

	return IngestionResult{
		SourcePath:   doc.StoragePath,
		DocumentID:   doc.ID,
		DocumentType: doc.DocumentType,
		HashHex:      hex.EncodeToString(sum),
		UploadedAt:   doc.UploadedAt,
	}, nil
}

// RegisterDirectory walks root, skips hidden entries if requested and
// registers every file with an allowed extension. Per-file failures are
// reported in the results and do not stop the walk.
func (i *Intake) RegisterDirectory(
	ctx context.Context,
	owner *uuid.UUID,
	docType constants.DocumentType,
	root string,
	skipHidden bool,
) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.Register(ctx, owner, docType, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
