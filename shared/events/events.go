package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire format for report change notifications. Consumers
// treat the payload as advisory only and re-read durable state instead of
// merging it (see the aggregate engine).
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
}

const (
	TopicLaporanAntrian = "antrian.laporan"

	AggregateLaporan = "laporan_antrian"

	EventLaporanCreated = "laporan.created"
)
