package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/entity"
)

const tableDocuments = "uploaded_documents"

var documentColumns = []string{
	"id", "document_type", "storage_path", "content_hash", "uploaded_at", "ocr_status",
	"raw_ocr_text", "extracted_fields", "processed_at", "owner_id", "application_id",
}

// DocumentRepository stores uploaded documents and their OCR results.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.UploadedDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.UploadedDocument, error)
	GetByHash(ctx context.Context, hash []byte) (*entity.UploadedDocument, error)
	ListByStatus(ctx context.Context, status constants.OCRStatus, limit int) ([]*entity.UploadedDocument, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.OCRStatus) error
	SetOCRResult(ctx context.Context, id uuid.UUID, rawText string, fields json.RawMessage) error
	LinkApplication(ctx context.Context, id, applicationID uuid.UUID) error
	SetOwner(ctx context.Context, id, ownerID uuid.UUID) error
}

type documentRepo struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewDocumentRepository(drv *entsql.Driver, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{drv: drv, logger: logger}
}

func (r *documentRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

// Create inserts doc. A zero ID, upload time or status is filled in.
func (r *documentRepo) Create(ctx context.Context, doc *entity.UploadedDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	if doc.OCRStatus == "" {
		doc.OCRStatus = constants.OCRStatusPending
	}

	ins := r.builder().Insert(tableDocuments).
		Columns("id", "document_type", "storage_path", "content_hash", "uploaded_at", "ocr_status", "owner_id").
		Values(doc.ID, string(doc.DocumentType), doc.StoragePath, doc.ContentHash, doc.UploadedAt, string(doc.OCRStatus), nullUUID(doc.OwnerID))
	if err := execQ(ctx, r.drv, ins); err != nil {
		r.logger.Error("failed to create uploaded document", "path", doc.StoragePath, "error", err)
		return fmt.Errorf("create document: %w", err)
	}
	r.logger.Debug("uploaded document created", "document_id", doc.ID, "document_type", doc.DocumentType)
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.UploadedDocument, error) {
	b := r.builder()
	q := b.Select(documentColumns...).From(b.Table(tableDocuments)).Where(entsql.EQ("id", id))
	doc, err := r.one(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

func (r *documentRepo) GetByHash(ctx context.Context, hash []byte) (*entity.UploadedDocument, error) {
	b := r.builder()
	q := b.Select(documentColumns...).From(b.Table(tableDocuments)).
		Where(entsql.EQ("content_hash", hash)).
		OrderBy("uploaded_at").
		Limit(1)
	doc, err := r.one(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get document by hash: %w", err)
	}
	return doc, nil
}

func (r *documentRepo) ListByStatus(ctx context.Context, status constants.OCRStatus, limit int) ([]*entity.UploadedDocument, error) {
	b := r.builder()
	q := b.Select(documentColumns...).From(b.Table(tableDocuments)).
		Where(entsql.EQ("ocr_status", string(status))).
		OrderBy("uploaded_at")
	if limit > 0 {
		q.Limit(limit)
	}
	var out []*entity.UploadedDocument
	err := queryQ(ctx, r.drv, q, func(rows *entsql.Rows) error {
		for rows.Next() {
			doc, err := scanDocument(rows)
			if err != nil {
				return err
			}
			out = append(out, doc)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list documents", "status", status, "error", err)
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

// SetStatus records a terminal status without OCR output.
func (r *documentRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.OCRStatus) error {
	upd := r.builder().Update(tableDocuments).
		Set("ocr_status", string(status)).
		Set("processed_at", time.Now().UTC()).
		Where(entsql.EQ("id", id))
	return r.update(ctx, id, "set status", upd)
}

// SetOCRResult stores the OCR text and the extracted-fields document and marks
// the document completed.
func (r *documentRepo) SetOCRResult(ctx context.Context, id uuid.UUID, rawText string, fields json.RawMessage) error {
	upd := r.builder().Update(tableDocuments).
		Set("ocr_status", string(constants.OCRStatusCompleted)).
		Set("raw_ocr_text", rawText).
		Set("processed_at", time.Now().UTC())
	if len(fields) > 0 {
		upd.Set("extracted_fields", string(fields))
	} else {
		upd.SetNull("extracted_fields")
	}
	upd.Where(entsql.EQ("id", id))
	return r.update(ctx, id, "set ocr result", upd)
}

func (r *documentRepo) LinkApplication(ctx context.Context, id, applicationID uuid.UUID) error {
	upd := r.builder().Update(tableDocuments).Set("application_id", applicationID).Where(entsql.EQ("id", id))
	return r.update(ctx, id, "link application", upd)
}

func (r *documentRepo) SetOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	upd := r.builder().Update(tableDocuments).Set("owner_id", ownerID).Where(entsql.EQ("id", id))
	return r.update(ctx, id, "set owner", upd)
}

func (r *documentRepo) update(ctx context.Context, id uuid.UUID, op string, upd *entsql.UpdateBuilder) error {
	n, err := execAffected(ctx, r.drv, upd)
	if err != nil {
		r.logger.Error("failed to update document", "op", op, "document_id", id, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: document %s: %w", op, id, common.ErrNotFound)
	}
	return nil
}

func (r *documentRepo) one(ctx context.Context, q *entsql.Selector) (*entity.UploadedDocument, error) {
	var doc *entity.UploadedDocument
	err := queryQ(ctx, r.drv, q, func(rows *entsql.Rows) error {
		if !rows.Next() {
			return common.ErrNotFound
		}
		var err error
		doc, err = scanDocument(rows)
		return err
	})
	return doc, err
}

func scanDocument(rows *entsql.Rows) (*entity.UploadedDocument, error) {
	var (
		doc         entity.UploadedDocument
		docType     string
		status      string
		rawText     sql.NullString
		fields      sql.NullString
		processedAt sql.NullTime
		ownerID     uuid.NullUUID
		appID       uuid.NullUUID
	)
	if err := rows.Scan(&doc.ID, &docType, &doc.StoragePath, &doc.ContentHash, &doc.UploadedAt, &status,
		&rawText, &fields, &processedAt, &ownerID, &appID); err != nil {
		return nil, err
	}
	doc.DocumentType = constants.DocumentType(docType)
	doc.OCRStatus = constants.OCRStatus(status)
	if rawText.Valid {
		doc.RawOCRText = &rawText.String
	}
	if fields.Valid {
		doc.ExtractedFields = json.RawMessage(fields.String)
	}
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	doc.OwnerID = uuidPtr(ownerID)
	doc.ApplicationID = uuidPtr(appID)
	return &doc, nil
}

// nullUUID converts an optional id into a driver value.
func nullUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}
