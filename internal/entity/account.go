package entity

import (
	"time"

	"github.com/google/uuid"
)

// Account identifies a borrower. Auto-provisioned accounts carry the shared
// temporary credential and must change it on first login.
type Account struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	Email              *string   `json:"email,omitempty"`
	PasswordHash       string    `json:"-"`
	Role               string    `json:"role"`
	ClientNumber       string    `json:"client_number"`
	AutoProvisioned    bool      `json:"auto_provisioned"`
	MustChangePassword bool      `json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
}
