package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/veriface/internal/audit"
)

const (
	HeaderSignature = "X-Veriface-Signature"
	HeaderTimestamp = "X-Veriface-Timestamp"
	HeaderEvent     = "X-Veriface-Event"
	HeaderDelivery  = "X-Veriface-Delivery"

	userAgent = "Veriface-Webhook/1.0"
)

// Config configures the outbound notifier.
type Config struct {
	URL         string
	Secret      string
	Events      []audit.EventType
	MaxAttempts int
	QueueSize   int
	Timeout     time.Duration
}

// Payload is the JSON body POSTed to the receiver.
type Payload struct {
	DeliveryID uuid.UUID   `json:"delivery_id"`
	Type       string      `json:"type"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       audit.Event `json:"data"`
}

type delivery struct {
	payload  Payload
	attempts int
}
