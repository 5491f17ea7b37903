package booking

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventBookingCreated   = "BookingCreated"
	EventBookingCancelled = "BookingCancelled"
	EventBookingConfirmed = "BookingConfirmed"
)

const (
	TopicBookingCreated   = "booking.created"
	TopicBookingCancelled = "booking.cancelled"
	TopicBookingConfirmed = "booking.confirmed"
)

// Topics lists every topic the service publishes to.
var Topics = []string{TopicBookingCreated, TopicBookingCancelled, TopicBookingConfirmed}

const EventVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // booking id
	Payload       json.RawMessage `json:"payload"`
}

// PartitionKey keeps every event of one booking in order.
func PartitionKey(bookingID string) []byte { return []byte(bookingID) }

type CellRef struct {
	Date string `json:"date"` // 2006-01-02
	Hour int    `json:"hour"`
	Half bool   `json:"half,omitempty"`
}

type BookingCreatedPayload struct {
	BookingID  string          `json:"booking_id"`
	ExternalID string          `json:"external_id,omitempty"`
	ScopeKey   string          `json:"scope_key"`
	SubjectID  string          `json:"subject_id"`
	Status     string          `json:"status"`
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	Cells      []CellRef       `json:"cells"`
	Total      decimal.Decimal `json:"total"`
}

// StatusChangedPayload is carried by BookingCancelled and BookingConfirmed.
type StatusChangedPayload struct {
	BookingID string `json:"booking_id"`
	ScopeKey  string `json:"scope_key"`
	From      string `json:"from"`
	Status    string `json:"status"`
}
