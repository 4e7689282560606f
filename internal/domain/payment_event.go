package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PaymentEventType string

const (
	PaymentEventTypeCreated  PaymentEventType = "created"
	PaymentEventTypeApproved PaymentEventType = "approved"
	PaymentEventTypeRejected PaymentEventType = "rejected"
)

// PaymentEvent is the append-only audit record written alongside every state
// change, in the same transaction.
type PaymentEvent struct {
	ID        uuid.UUID
	PaymentID uuid.UUID
	EventType PaymentEventType
	Actor     string
	Payload   json.RawMessage
	CreatedAt time.Time
}
