package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/entity"
	"github.com/joseph-ayodele/loan-intake/internal/extract"
	"github.com/joseph-ayodele/loan-intake/internal/materialize"
	"github.com/joseph-ayodele/loan-intake/internal/notify"
	"github.com/joseph-ayodele/loan-intake/internal/provision"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

func (p *Processor) materialize(ctx context.Context, logger *slog.Logger, doc *entity.UploadedDocument, id provision.Identity, fields extract.FieldSet) (materialize.Result, error) {
	ref := materialize.ApplicationRef{OwnerID: id.AccountID, DocumentID: &doc.ID}
	res, err := p.materializer.Materialize(ctx, ref, fields)
	if err != nil {
		return materialize.Result{}, common.NewAppError(common.CodeMaterializationFailed, "could not save the extracted application", err)
	}
	if !res.Empty() {
		logger.Info("pipeline.materialize.ok", "application_id", res.ApplicationID, "records", res.Created)
	}
	return res, nil
}

// linked returns the application an earlier run already stored for doc, so a
// re-run never materializes a second copy.
func (p *Processor) linked(ctx context.Context, logger *slog.Logger, doc *entity.UploadedDocument) (materialize.Result, error) {
	app, err := p.apps.GetByID(ctx, *doc.ApplicationID)
	if err != nil {
		return materialize.Result{}, common.NewAppError(common.CodeMaterializationFailed, "could not load the linked application", err)
	}
	res := materialize.Result{ApplicationID: app.ID, Created: materialize.RecordsOf(app)}
	logger.Info("pipeline.materialize.skipped", "application_id", app.ID, "records", res.Created)
	return res, nil
}

// provision creates an account for an anonymous upload and announces it. The
// account takes over the document and application in its insert
// transaction, so a document never ends up with two accounts. Failures here
// never undo the materialized application.
func (p *Processor) provision(ctx context.Context, logger *slog.Logger, doc *entity.UploadedDocument, id provision.Identity, fields extract.FieldSet, res materialize.Result) *provision.AccountRef {
	claim := repository.Claim{ApplicationID: res.ApplicationID, DocumentID: &doc.ID}
	acc, err := p.provisioner.ProvisionClaiming(ctx, fields, id, claim)
	if err != nil {
		if errors.Is(err, provision.ErrEmailTaken) {
			logger.Warn("pipeline.provision.email_taken", "application_id", res.ApplicationID)
		} else {
			logger.Error("pipeline.provision.failed", "application_id", res.ApplicationID, "error", err)
		}
		return nil
	}
	if acc == nil {
		return nil
	}

	doc.OwnerID = &acc.ID

	ev := notify.AccountProvisioned{
		AccountID:     acc.ID,
		Username:      acc.Username,
		Email:         acc.Email,
		ClientNumber:  acc.ClientNumber,
		DocumentID:    doc.ID,
		ApplicationID: res.ApplicationID,
		OccurredAt:    time.Now().UTC(),
	}
	if err := p.publisher.Publish(ctx, notify.RoutingAccountProvisioned, ev); err != nil {
		logger.Error("pipeline.publish.failed", "account_id", acc.ID, "error", err)
	}
	logger.Info("pipeline.provision.ok", "account_id", acc.ID, "username", acc.Username)
	return acc
}
