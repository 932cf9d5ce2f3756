package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/loan-intake/constants"
)

// IngestionResult is the per-file intake outcome.
type IngestionResult struct {
	SourcePath   string
	DocumentID   uuid.UUID
	DocumentType constants.DocumentType
	Deduplicated bool
	HashHex      string
	UploadedAt   time.Time
	Err          string
}

// DirStats summarizes a directory intake.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor registers uploaded files as pending documents.
type Ingestor interface {
	Register(ctx context.Context, owner *uuid.UUID, docType constants.DocumentType, path string) (IngestionResult, error)
	RegisterDirectory(ctx context.Context, owner *uuid.UUID, docType constants.DocumentType, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
