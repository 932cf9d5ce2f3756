// Package notify publishes domain events for services outside the pipeline,
// such as the mailer that sends first-login credentials.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RoutingAccountProvisioned is the routing key of AccountProvisioned.
const RoutingAccountProvisioned = "account.provisioned"

// AccountProvisioned is emitted after a borrower account is created from an
// uploaded document.
type AccountProvisioned struct {
	AccountID     uuid.UUID `json:"account_id"`
	Username      string    `json:"username"`
	Email         *string   `json:"email,omitempty"`
	ClientNumber  string    `json:"client_number"`
	DocumentID    uuid.UUID `json:"document_id"`
	ApplicationID uuid.UUID `json:"application_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher is implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}
