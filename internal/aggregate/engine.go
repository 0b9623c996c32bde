// Package aggregate maintains the in-memory queue state for every station.
//
// The engine is rebuilt from the database on a fixed interval and on every
// report notification. Notifications only trigger the rebuild; their payload
// is never applied directly, so a forged or stale message can at worst cause
// an extra resync.
package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"antrian-bbm-service/internal/models"
	"antrian-bbm-service/internal/traffic"
	"antrian-bbm-service/shared/logx"
	"antrian-bbm-service/shared/metricsx"
)

var ErrUnknownStation = errors.New("unknown station")

// Resync triggers, used as metric labels.
const (
	TriggerInitial  = "initial"
	TriggerInterval = "interval"
	TriggerEvent    = "event"
)

type StationLister interface {
	ListStations(ctx context.Context) ([]models.Station, error)
}

type LatestReporter interface {
	ListLatestPerStation(ctx context.Context) ([]models.QueueReport, error)
}

// SnapshotStore persists the aggregate snapshot between restarts. Failures
// are logged and swallowed; the database remains the source of truth.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, stations []models.StationAggregate) error
}

type Engine struct {
	stations StationLister
	reports  LatestReporter
	store    SnapshotStore
	logger   logx.Logger

	mu    sync.RWMutex
	state map[uuid.UUID]models.StationAggregate
	order []uuid.UUID
}

// New builds an empty engine. store may be nil.
func New(stations StationLister, reports LatestReporter, store SnapshotStore, logger logx.Logger) *Engine {
	return &Engine{
		stations: stations,
		reports:  reports,
		store:    store,
		logger:   logger,
		state:    make(map[uuid.UUID]models.StationAggregate),
	}
}

// Restore seeds the engine from a previously saved snapshot, so the station
// list can serve before the first database resync completes. A later resync
// replaces everything restored here.
func (e *Engine) Restore(stations []models.StationAggregate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = make(map[uuid.UUID]models.StationAggregate, len(stations))
	e.order = make([]uuid.UUID, 0, len(stations))
	for _, s := range stations {
		if _, dup := e.state[s.StationID]; dup {
			continue
		}
		e.state[s.StationID] = s
		e.order = append(e.order, s.StationID)
	}
	metricsx.SetAggregateStations(len(e.order))
}

// Resync rebuilds the full state from the database. Stations without any
// report get zero counters, unknown status and a nil last-update. The rebuilt
// state replaces the old one atomically.
func (e *Engine) Resync(ctx context.Context, trigger string) error {
	start := time.Now()
	stations, err := e.stations.ListStations(ctx)
	if err != nil {
		metricsx.IncResync(trigger, "error")
		return err
	}
	latest, err := e.reports.ListLatestPerStation(ctx)
	if err != nil {
		metricsx.IncResync(trigger, "error")
		return err
	}

	byStation := make(map[uuid.UUID]models.QueueReport, len(latest))
	for _, rep := range latest {
		byStation[rep.StationID] = rep
	}

	state := make(map[uuid.UUID]models.StationAggregate, len(stations))
	order := make([]uuid.UUID, 0, len(stations))
	for _, s := range stations {
		agg := models.StationAggregate{Station: s, TrafficStatus: traffic.StatusUnknown}
		if rep, ok := byStation[s.StationID]; ok {
			agg.AntrianMotor = rep.JumlahMotor
			agg.EstimasiMenit = rep.EstimasiMenit
			agg.TrafficStatus = rep.TrafficStatus
			ts := rep.CreatedAt
			agg.LastUpdate = &ts
		}
		state[s.StationID] = agg
		order = append(order, s.StationID)
	}

	e.mu.Lock()
	e.state = state
	e.order = order
	e.mu.Unlock()

	metricsx.IncResync(trigger, "ok")
	metricsx.ObserveResyncLatency(time.Since(start))
	metricsx.SetAggregateStations(len(order))

	if e.store != nil {
		if err := e.store.SaveSnapshot(ctx, e.Snapshot()); err != nil {
			e.logger.Warn(ctx, "snapshot_save_failed", "failed to save aggregate snapshot",
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// Ingest applies one freshly accepted report to the in-memory state without
// waiting for the next resync. The newest delivery wins unconditionally, even
// if its created_at is older than the current value; the periodic resync
// settles any disagreement.
func (e *Engine) Ingest(report models.QueueReport) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	agg, ok := e.state[report.StationID]
	if !ok {
		return ErrUnknownStation
	}
	agg.AntrianMotor = report.JumlahMotor
	agg.EstimasiMenit = report.EstimasiMenit
	agg.TrafficStatus = report.TrafficStatus
	ts := report.CreatedAt
	agg.LastUpdate = &ts
	e.state[report.StationID] = agg
	return nil
}

// Snapshot returns a copy of every station aggregate in the stored base order
// (kota, then nama). Callers may filter and re-sort the copy freely.
func (e *Engine) Snapshot() []models.StationAggregate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.StationAggregate, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.state[id])
	}
	return out
}

// Station returns the aggregate for one station, if known.
func (e *Engine) Station(stationID uuid.UUID) (models.StationAggregate, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	agg, ok := e.state[stationID]
	return agg, ok
}
