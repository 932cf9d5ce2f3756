package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/extract"
	"github.com/joseph-ayodele/loan-intake/internal/materialize"
)

// Process runs the document named by req end to end.
//
// Format errors, OCR errors and materialization errors are returned as
// *common.AppError and leave no application or account behind. Zero
// extracted fields is a no_data outcome, not an error. A document already
// linked to an application keeps that application; only a missing account is
// provisioned again.
func (p *Processor) Process(ctx context.Context, req Request) (Outcome, error) {
	ctx = common.WithDocumentID(ctx, req.DocumentID.String())
	logger := common.LoggerFrom(ctx, p.logger)
	out := Outcome{Status: constants.OutcomeNoData, DocumentID: req.DocumentID}

	doc, err := p.docs.GetByID(ctx, req.DocumentID)
	if err != nil {
		return out, fmt.Errorf("load document: %w", err)
	}

	id := req.Identity
	if !id.Authenticated && doc.OwnerID != nil {
		// already claimed by an earlier run or an uploader
		id.Authenticated = true
		id.AccountID = doc.OwnerID
	}
	if id.Authenticated && id.AccountID != nil && doc.OwnerID == nil {
		if err := p.docs.SetOwner(ctx, doc.ID, *id.AccountID); err != nil {
			logger.Warn("pipeline.owner.attach_failed", "error", err)
		}
	}

	if err := p.checkFormat(ctx, logger, doc); err != nil {
		logger.Warn("pipeline.format.rejected", "path", doc.StoragePath, "code", common.ErrorCode(err))
		return out, err
	}

	fields, err := p.runOCR(ctx, logger, doc)
	if err != nil {
		logger.Error("pipeline.ocr.failed", "error", err)
		return out, err
	}
	if fields.Len() == 0 {
		logger.Info("pipeline.no_data")
		return out, nil
	}

	var res materialize.Result
	if doc.ApplicationID != nil {
		res, err = p.linked(ctx, logger, doc)
	} else {
		res, err = p.materialize(ctx, logger, doc, id, fields)
	}
	if err != nil {
		logger.Error("pipeline.materialize.failed", "error", err)
		return out, err
	}
	if res.Empty() {
		logger.Info("pipeline.no_data", "fields", fields.Len())
		return out, nil
	}

	appID := res.ApplicationID
	out.ApplicationID = &appID
	out.Created = res.Created
	out.Status = outcomeStatus(doc.DocumentType, res.Created)

	if acc := p.provision(ctx, logger, doc, id, fields, res); acc != nil {
		accID := acc.ID
		out.AccountID = &accID
	}

	logger.Info("pipeline.done", "status", out.Status, "application_id", appID)
	return out, nil
}

// outcomeStatus is complete when every record the category can produce was
// created.
func outcomeStatus(category constants.DocumentType, created []extract.Record) constants.OutcomeStatus {
	for _, r := range materialize.ReachableRecords(category) {
		if !slices.Contains(created, r) {
			return constants.OutcomePartial
		}
	}
	return constants.OutcomeComplete
}
