package materialize

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/loan-intake/internal/extract"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

// ErrMaterialization wraps any persistence failure. Nothing is stored when
// it is returned.
var ErrMaterialization = errors.New("materialization failed")

// ApplicationRef identifies who the new application belongs to and the
// document it was read from.
type ApplicationRef struct {
	OwnerID    *uuid.UUID
	DocumentID *uuid.UUID
}

// Result reports what was persisted. ApplicationID is uuid.Nil when nothing
// was created.
type Result struct {
	ApplicationID uuid.UUID
	Created       []extract.Record
}

func (r Result) Empty() bool { return len(r.Created) == 0 }

// Materializer persists planned applications.
type Materializer struct {
	apps   repository.ApplicationRepository
	logger *slog.Logger
}

func New(apps repository.ApplicationRepository, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{apps: apps, logger: logger}
}

// Materialize stores the application anchored by fields together with all
// of its sub-records in one transaction. An empty plan stores nothing.
func (m *Materializer) Materialize(ctx context.Context, ref ApplicationRef, fields extract.FieldSet) (Result, error) {
	plan := PlanFor(fields)
	if plan.Empty() {
		m.logger.Info("materialize.no_anchors", "fields", fields.Len())
		return Result{}, nil
	}

	app := plan.Application
	app.OwnerID = ref.OwnerID
	if err := m.apps.CreateWithRecords(ctx, app, ref.DocumentID); err != nil {
		m.logger.Error("materialize.failed", "error", err)
		return Result{}, errors.Join(ErrMaterialization, err)
	}

	m.logger.Info("materialize.done", "application_id", app.ID, "records", plan.Records)
	return Result{ApplicationID: app.ID, Created: plan.Records}, nil
}
