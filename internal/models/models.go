package models

import (
	"time"

	"github.com/google/uuid"

	"antrian-bbm-service/internal/traffic"
)

// Station is one SPBU record from the station directory. The core only ever
// reads these; directory maintenance happens outside this service.
type Station struct {
	StationID uuid.UUID `json:"id"`
	Kode      string    `json:"kode"`
	Nama      string    `json:"nama"`
	Alamat    string    `json:"alamat"`
	Kota      string    `json:"kota"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Buka24Jam bool      `json:"buka_24_jam"`
	CreatedAt time.Time `json:"created_at"`
}

// QueueReport is one crowd-submitted observation of a station's queue.
// Immutable once written.
type QueueReport struct {
	ReportID      uuid.UUID      `json:"id"`
	StationID     uuid.UUID      `json:"spbu_id"`
	JumlahMotor   int            `json:"jumlah_motor"`
	EstimasiMenit int            `json:"estimasi_menit"`
	TrafficStatus traffic.Status `json:"traffic_status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ReportWithStation is a report joined with its station's display fields,
// used by the recent-report feed.
type ReportWithStation struct {
	QueueReport
	StationNama string `json:"spbu_nama"`
	StationKota string `json:"spbu_kota"`
}

// StationAggregate is the latest-known queue state for one station. A nil
// LastUpdate means no report has ever been received; the status must then be
// unknown and the counters zero.
type StationAggregate struct {
	Station
	AntrianMotor  int            `json:"antrian_motor"`
	EstimasiMenit int            `json:"estimasi_menit"`
	TrafficStatus traffic.Status `json:"traffic_status"`
	LastUpdate    *time.Time     `json:"update_terakhir"`
}

type OutboxEvent struct {
	EventID       uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	Topic         string
	Payload       []byte
	Status        string
	Attempts      int
	NextRetryAt   *time.Time
	LockedAt      *time.Time
	LockedBy      *string
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PublishedAt   *time.Time
}
