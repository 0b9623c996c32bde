package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"antrian-bbm-service/internal/models"
	"antrian-bbm-service/internal/traffic"
	"antrian-bbm-service/shared/logx"
)

type fakeSource struct {
	stations []models.Station
	latest   []models.QueueReport
	err      error
}

func (f *fakeSource) ListStations(ctx context.Context) ([]models.Station, error) {
	return f.stations, f.err
}

func (f *fakeSource) ListLatestPerStation(ctx context.Context) ([]models.QueueReport, error) {
	return f.latest, f.err
}

type fakeStore struct {
	saved [][]models.StationAggregate
	err   error
}

func (f *fakeStore) SaveSnapshot(ctx context.Context, stations []models.StationAggregate) error {
	f.saved = append(f.saved, stations)
	return f.err
}

func testLogger() logx.Logger {
	return logx.New("aggregate-test", "test", "", "error")
}

func station(kode, nama, kota string) models.Station {
	return models.Station{
		StationID: uuid.New(),
		Kode:      kode,
		Nama:      nama,
		Kota:      kota,
		CreatedAt: time.Now().UTC(),
	}
}

func TestResyncBuildsState(t *testing.T) {
	a := station("31.101", "SPBU Sudirman", "Jakarta")
	b := station("31.102", "SPBU Thamrin", "Jakarta")
	reported := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	src := &fakeSource{
		stations: []models.Station{a, b},
		latest: []models.QueueReport{
			{ReportID: uuid.New(), StationID: a.StationID, JumlahMotor: 12, EstimasiMenit: 30, TrafficStatus: traffic.StatusLancar, CreatedAt: reported},
		},
	}
	store := &fakeStore{}
	engine := New(src, src, store, testLogger())

	if err := engine.Resync(context.Background(), TriggerInitial); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	snap := engine.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(snap))
	}
	if snap[0].StationID != a.StationID {
		t.Fatalf("snapshot must keep the lister's order")
	}
	if snap[0].AntrianMotor != 12 || snap[0].TrafficStatus != traffic.StatusLancar {
		t.Fatalf("reported station not aggregated: %+v", snap[0])
	}
	if snap[0].LastUpdate == nil || !snap[0].LastUpdate.Equal(reported) {
		t.Fatalf("last update must carry the report timestamp")
	}
	if snap[1].TrafficStatus != traffic.StatusUnknown || snap[1].LastUpdate != nil || snap[1].AntrianMotor != 0 {
		t.Fatalf("unreported station must be unknown with zero counters: %+v", snap[1])
	}
	if len(store.saved) != 1 {
		t.Fatalf("resync must save one snapshot, saved %d", len(store.saved))
	}
}

func TestResyncIsIdempotent(t *testing.T) {
	a := station("31.101", "SPBU Sudirman", "Jakarta")
	src := &fakeSource{
		stations: []models.Station{a},
		latest: []models.QueueReport{
			{ReportID: uuid.New(), StationID: a.StationID, JumlahMotor: 7, EstimasiMenit: 18, TrafficStatus: traffic.StatusLancar, CreatedAt: time.Now().UTC()},
		},
	}
	engine := New(src, src, nil, testLogger())

	if err := engine.Resync(context.Background(), TriggerInitial); err != nil {
		t.Fatalf("resync failed: %v", err)
	}
	first := engine.Snapshot()
	if err := engine.Resync(context.Background(), TriggerEvent); err != nil {
		t.Fatalf("second resync failed: %v", err)
	}
	second := engine.Snapshot()
	if len(first) != len(second) || first[0].AntrianMotor != second[0].AntrianMotor {
		t.Fatalf("repeated resync over unchanged data must not change state")
	}
}

func TestResyncErrorKeepsOldState(t *testing.T) {
	a := station("31.101", "SPBU Sudirman", "Jakarta")
	src := &fakeSource{stations: []models.Station{a}}
	engine := New(src, src, nil, testLogger())
	if err := engine.Resync(context.Background(), TriggerInitial); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	src.err = errors.New("db down")
	if err := engine.Resync(context.Background(), TriggerInterval); err == nil {
		t.Fatalf("expected resync error")
	}
	if len(engine.Snapshot()) != 1 {
		t.Fatalf("failed resync must keep the previous state")
	}
}

func TestIngestDeliveryOrderWins(t *testing.T) {
	a := station("31.101", "SPBU Sudirman", "Jakarta")
	src := &fakeSource{stations: []models.Station{a}}
	engine := New(src, src, nil, testLogger())
	if err := engine.Resync(context.Background(), TriggerInitial); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	newer := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-5 * time.Minute)
	if err := engine.Ingest(models.QueueReport{StationID: a.StationID, JumlahMotor: 20, EstimasiMenit: 50, TrafficStatus: traffic.StatusRamai, CreatedAt: newer}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	// A report with an older timestamp still wins when it arrives later.
	if err := engine.Ingest(models.QueueReport{StationID: a.StationID, JumlahMotor: 3, EstimasiMenit: 8, TrafficStatus: traffic.StatusLancar, CreatedAt: older}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	agg, ok := engine.Station(a.StationID)
	if !ok {
		t.Fatalf("station missing after ingest")
	}
	if agg.AntrianMotor != 3 || agg.TrafficStatus != traffic.StatusLancar {
		t.Fatalf("last delivery must win, got %+v", agg)
	}
	if agg.LastUpdate == nil || !agg.LastUpdate.Equal(older) {
		t.Fatalf("last update must follow the winning delivery")
	}
}

func TestIngestUnknownStation(t *testing.T) {
	src := &fakeSource{}
	engine := New(src, src, nil, testLogger())
	err := engine.Ingest(models.QueueReport{StationID: uuid.New(), JumlahMotor: 1, TrafficStatus: traffic.StatusLancar})
	if !errors.Is(err, ErrUnknownStation) {
		t.Fatalf("expected ErrUnknownStation, got %v", err)
	}
}

func TestRestoreThenResyncReplaces(t *testing.T) {
	a := station("31.101", "SPBU Sudirman", "Jakarta")
	cached := models.StationAggregate{Station: a, AntrianMotor: 99, TrafficStatus: traffic.StatusMacet}
	src := &fakeSource{stations: []models.Station{a}}
	engine := New(src, src, nil, testLogger())

	engine.Restore([]models.StationAggregate{cached})
	if got, _ := engine.Station(a.StationID); got.AntrianMotor != 99 {
		t.Fatalf("restore must seed the cached aggregate")
	}

	if err := engine.Resync(context.Background(), TriggerInitial); err != nil {
		t.Fatalf("resync failed: %v", err)
	}
	got, _ := engine.Station(a.StationID)
	if got.AntrianMotor != 0 || got.TrafficStatus != traffic.StatusUnknown {
		t.Fatalf("resync must replace the restored snapshot, got %+v", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	a := station("31.101", "SPBU Sudirman", "Jakarta")
	src := &fakeSource{stations: []models.Station{a}}
	engine := New(src, src, nil, testLogger())
	if err := engine.Resync(context.Background(), TriggerInitial); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	snap := engine.Snapshot()
	snap[0].AntrianMotor = 1000
	if got, _ := engine.Station(a.StationID); got.AntrianMotor != 0 {
		t.Fatalf("mutating a snapshot must not touch engine state")
	}
}
