// Package app wires the repositories and pipeline stages shared by the
// command-line tools and the daemon.
package app

import (
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/export"
	"github.com/joseph-ayodele/loan-intake/internal/extract"
	"github.com/joseph-ayodele/loan-intake/internal/ingest"
	"github.com/joseph-ayodele/loan-intake/internal/materialize"
	"github.com/joseph-ayodele/loan-intake/internal/notify"
	"github.com/joseph-ayodele/loan-intake/internal/ocr"
	"github.com/joseph-ayodele/loan-intake/internal/pipeline"
	"github.com/joseph-ayodele/loan-intake/internal/provision"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

type App struct {
	Docs      repository.DocumentRepository
	Apps      repository.ApplicationRepository
	Accounts  repository.AccountRepository
	Intake    *ingest.Intake
	Processor *pipeline.Processor
	Export    *export.Service
	Publisher notify.Publisher
}

// New builds the full pipeline on drv. text may be nil, in which case
// tesseract is configured from cfg.OCR.
func New(drv *entsql.Driver, cfg *common.Config, text pipeline.TextExtractor, publisher notify.Publisher, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = notify.LogPublisher{Logger: logger}
	}
	if text == nil {
		text = ocr.NewExtractor(ocr.Config{
			Tesseract:           cfg.OCR.Tesseract,
			TesseractLang:       cfg.OCR.Language,
			TessdataDir:         cfg.OCR.TessdataDir,
			EnableTSVConfidence: cfg.OCR.TSVConfidence,
			PSM:                 cfg.OCR.PSM,
			OEM:                 cfg.OCR.OEM,
		}, logger)
	}

	docs := repository.NewDocumentRepository(drv, logger)
	apps := repository.NewApplicationRepository(drv, logger)
	accounts := repository.NewAccountRepository(drv, logger)

	proc := pipeline.NewProcessor(
		logger,
		pipeline.Config{OCRTimeout: cfg.Pipeline.Timeout},
		docs,
		apps,
		text,
		extract.NewExtractor(logger),
		materialize.New(apps, logger),
		provision.New(accounts, provision.Config{MaxAttempts: cfg.Pipeline.ProvisionAttempts}, logger),
		publisher,
	)

	return &App{
		Docs:      docs,
		Apps:      apps,
		Accounts:  accounts,
		Intake:    ingest.NewIntake(docs, logger),
		Processor: proc,
		Export:    export.NewService(apps, logger),
		Publisher: publisher,
	}
}

// NewPublisher connects to the broker when a URL is configured and falls back
// to logging events otherwise.
func NewPublisher(cfg common.BrokerConfig, logger *slog.Logger) (notify.Publisher, error) {
	if cfg.URL == "" {
		logger.Info("no broker configured, events will be logged")
		return notify.LogPublisher{Logger: logger}, nil
	}
	return notify.NewAMQPPublisher(cfg.URL, cfg.Exchange, logger)
}
