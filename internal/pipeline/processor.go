// Package pipeline runs one uploaded document through OCR, field extraction,
// record materialization and account provisioning.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/extract"
	"github.com/joseph-ayodele/loan-intake/internal/materialize"
	"github.com/joseph-ayodele/loan-intake/internal/notify"
	"github.com/joseph-ayodele/loan-intake/internal/ocr"
	"github.com/joseph-ayodele/loan-intake/internal/provision"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

// TextExtractor is the OCR collaborator. *ocr.Extractor implements it.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// Request asks for one document to be processed on behalf of Identity.
type Request struct {
	DocumentID uuid.UUID
	Identity   provision.Identity
}

// Outcome is what the calling workflow routes on. ApplicationID is set for
// partial and complete outcomes; AccountID only when an account was created.
type Outcome struct {
	Status        constants.OutcomeStatus
	DocumentID    uuid.UUID
	ApplicationID *uuid.UUID
	AccountID     *uuid.UUID
	Created       []extract.Record
}

type Config struct {
	// OCRTimeout bounds the OCR step on top of the caller's deadline.
	OCRTimeout time.Duration
}

// Processor owns the stage collaborators. Stages run strictly in order for a
// given document.
type Processor struct {
	logger       *slog.Logger
	cfg          Config
	docs         repository.DocumentRepository
	apps         repository.ApplicationRepository
	text         TextExtractor
	fields       *extract.Extractor
	materializer *materialize.Materializer
	provisioner  *provision.Provisioner
	publisher    notify.Publisher
}

func NewProcessor(
	logger *slog.Logger,
	cfg Config,
	docs repository.DocumentRepository,
	apps repository.ApplicationRepository,
	text TextExtractor,
	fields *extract.Extractor,
	materializer *materialize.Materializer,
	provisioner *provision.Provisioner,
	publisher notify.Publisher,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = notify.LogPublisher{Logger: logger}
	}
	return &Processor{
		logger:       logger,
		cfg:          cfg,
		docs:         docs,
		apps:         apps,
		text:         text,
		fields:       fields,
		materializer: materializer,
		provisioner:  provisioner,
		publisher:    publisher,
	}
}
