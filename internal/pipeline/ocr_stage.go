package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/entity"
	"github.com/joseph-ayodele/loan-intake/internal/extract"
	"github.com/joseph-ayodele/loan-intake/internal/ocr"
)

// checkFormat rejects PDFs and unknown extensions before OCR and records the
// terminal status on the document.
func (p *Processor) checkFormat(ctx context.Context, logger *slog.Logger, doc *entity.UploadedDocument) error {
	ext := constants.NormalizeExt(filepath.Ext(doc.StoragePath))
	switch constants.MapExtToFormat(ext) {
	case constants.IMAGE:
		return nil
	case constants.PDF:
		p.markStatus(ctx, logger, doc, constants.OCRStatusUnsupportedFormat)
		return common.NewAppError(common.CodeUnsupportedFormat, "pdf documents must be converted to an image", ocr.ErrUnsupportedFormat)
	default:
		p.markStatus(ctx, logger, doc, constants.OCRStatusInvalidFormat)
		return common.NewAppError(common.CodeInvalidFormat, "unrecognised file extension "+ext, ocr.ErrInvalidFormat)
	}
}

// runOCR reads the document text and stores it with the extracted fields.
// Any OCR failure marks the document failed and stops the pipeline.
func (p *Processor) runOCR(ctx context.Context, logger *slog.Logger, doc *entity.UploadedDocument) (extract.FieldSet, error) {
	ocrCtx, cancel := common.WithTimeout(ctx, p.cfg.OCRTimeout)
	res, err := p.text.Extract(ocrCtx, doc.StoragePath)
	cancel()
	if err != nil {
		switch {
		case errors.Is(err, ocr.ErrUnsupportedFormat):
			p.markStatus(ctx, logger, doc, constants.OCRStatusUnsupportedFormat)
			return extract.FieldSet{}, common.NewAppError(common.CodeUnsupportedFormat, "unsupported document format", err)
		case errors.Is(err, ocr.ErrInvalidFormat):
			p.markStatus(ctx, logger, doc, constants.OCRStatusInvalidFormat)
			return extract.FieldSet{}, common.NewAppError(common.CodeInvalidFormat, "invalid document format", err)
		}
		p.markStatus(ctx, logger, doc, constants.OCRStatusFailed)
		return extract.FieldSet{}, common.NewAppError(common.CodeOCRFailed, "text extraction failed", err)
	}
	logger.Info("pipeline.ocr.ok", "method", res.Method, "confidence", res.Confidence, "duration", res.Duration, "bytes", len(res.Text))

	fields := p.fields.Extract(res.Text, doc.DocumentType)
	stored, err := fields.Document()
	if err != nil {
		logger.Error("pipeline.extract.invalid", "error", err)
		stored = nil
	}
	if err := p.docs.SetOCRResult(ctx, doc.ID, res.Text, stored); err != nil {
		return extract.FieldSet{}, common.NewAppError(common.CodeOCRFailed, "could not store ocr result", err)
	}
	doc.OCRStatus = constants.OCRStatusCompleted
	logger.Info("pipeline.extract.ok", "fields", fields.Len(), "purposes", fields.Purposes())
	return fields, nil
}

func (p *Processor) markStatus(ctx context.Context, logger *slog.Logger, doc *entity.UploadedDocument, status constants.OCRStatus) {
	if err := p.docs.SetStatus(ctx, doc.ID, status); err != nil {
		logger.Error("pipeline.status.failed", "status", status, "error", err)
		return
	}
	doc.OCRStatus = status
}
