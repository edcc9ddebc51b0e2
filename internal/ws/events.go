package ws

import (
	"time"

	"github.com/saturnino-fabrica-de-software/veriface/internal/capture"
	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

type EventType string

const (
	EventState    EventType = "capture.state"
	EventCaptured EventType = "capture.captured"
	EventError    EventType = "capture.error"
)

// Commands accepted as text messages
const (
	CommandStart   = "start"
	CommandCapture = "capture"
	CommandStop    = "stop"
	CommandRetake  = "retake"
)

type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// StatePayload is the session snapshot sent to the browser. Image carries
// the captured JPEG, base64 encoded by encoding/json.
type StatePayload struct {
	capture.State
	Image []byte           `json:"image,omitempty"`
	Error *domain.AppError `json:"error,omitempty"`
}
