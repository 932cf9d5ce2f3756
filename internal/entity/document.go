package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/loan-intake/constants"
)

// UploadedDocument is a stored upload and the result of its last OCR run.
type UploadedDocument struct {
	ID              uuid.UUID              `json:"id"`
	OwnerID         *uuid.UUID             `json:"owner_id,omitempty"`
	ApplicationID   *uuid.UUID             `json:"application_id,omitempty"`
	DocumentType    constants.DocumentType `json:"document_type"`
	StoragePath     string                 `json:"storage_path"`
	ContentHash     []byte                 `json:"content_hash,omitempty"`
	UploadedAt      time.Time              `json:"uploaded_at"`
	OCRStatus       constants.OCRStatus    `json:"ocr_status"`
	RawOCRText      *string                `json:"raw_ocr_text,omitempty"`
	ExtractedFields json.RawMessage        `json:"extracted_fields,omitempty"`
	ProcessedAt     *time.Time             `json:"processed_at,omitempty"`
}
