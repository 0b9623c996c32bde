package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"antrian-bbm-service/internal/aggregate"
	"antrian-bbm-service/internal/estimator"
	"antrian-bbm-service/internal/freshness"
	"antrian-bbm-service/internal/models"
	"antrian-bbm-service/internal/ranker"
	"antrian-bbm-service/internal/repos"
	"antrian-bbm-service/internal/traffic"
	"antrian-bbm-service/shared/events"
	"antrian-bbm-service/shared/httpx"
	"antrian-bbm-service/shared/influxx"
	"antrian-bbm-service/shared/logx"
	"antrian-bbm-service/shared/metricsx"
)

type app struct {
	logger   logx.Logger
	engine   *aggregate.Engine
	stations *repos.StationsRepo
	reports  *repos.ReportsRepo
	influx   *influxx.Client
	pricing  estimator.Pricing
}

type estimateRequest struct {
	TangkiLiter         float64    `json:"tangki_liter"`
	JumlahMotor         int        `json:"jumlah_motor"`
	PanjangAntrianMeter float64    `json:"panjang_antrian_meter"`
	MenitPerMotor       float64    `json:"menit_per_motor"`
	Petugas             int        `json:"petugas"`
	StationID           *uuid.UUID `json:"spbu_id"`
}

type laporanRequest struct {
	StationID           uuid.UUID `json:"spbu_id"`
	JumlahMotor         int       `json:"jumlah_motor"`
	PanjangAntrianMeter float64   `json:"panjang_antrian_meter"`
	MenitPerMotor       float64   `json:"menit_per_motor"`
	Petugas             int       `json:"petugas"`
}

type stationResponse struct {
	models.StationAggregate
	UpdateLabel string `json:"update_label"`
}

type laporanResponse struct {
	models.QueueReport
	Diterima bool `json:"diterima"`
}

// handleEstimate runs the calculator. When the caller also names a station,
// the same observation is submitted as a crowd report, so a personal estimate
// doubles as a data point for everyone else.
func (a *app) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid json body", nil)
		return
	}

	if req.JumlahMotor == 0 && req.PanjangAntrianMeter > 0 {
		req.JumlahMotor = estimator.MotorFromMeter(req.PanjangAntrianMeter)
	}
	if req.MenitPerMotor == 0 {
		req.MenitPerMotor = estimator.KecepatanSedang
	}
	if req.Petugas == 0 {
		req.Petugas = 1
	}

	result, err := estimator.Calculate(estimator.Input{
		TangkiLiter:   req.TangkiLiter,
		JumlahMotor:   req.JumlahMotor,
		MenitPerMotor: req.MenitPerMotor,
		Petugas:       req.Petugas,
	}, a.pricing, time.Now())
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error(), nil)
		return
	}

	if req.StationID != nil && *req.StationID != uuid.Nil {
		if _, err := a.submitReport(r.Context(), *req.StationID, req.JumlahMotor, int(result.TotalMenit)); err != nil {
			a.logger.Warn(r.Context(), "auto_report_failed", "estimate accepted but report submission failed",
				slog.String("spbu_id", req.StationID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

func (a *app) handleLaporan(w http.ResponseWriter, r *http.Request) {
	var req laporanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid json body", nil)
		return
	}
	if req.StationID == uuid.Nil {
		metricsx.IncLaporanRejected()
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "spbu_id is required", nil)
		return
	}
	if req.JumlahMotor == 0 && req.PanjangAntrianMeter > 0 {
		req.JumlahMotor = estimator.MotorFromMeter(req.PanjangAntrianMeter)
	}
	if req.JumlahMotor <= 0 {
		metricsx.IncLaporanRejected()
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "jumlah_motor must be positive", nil)
		return
	}
	if req.MenitPerMotor == 0 {
		req.MenitPerMotor = estimator.KecepatanSedang
	}
	if req.MenitPerMotor <= 0 {
		metricsx.IncLaporanRejected()
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "menit_per_motor must be positive", nil)
		return
	}
	if req.Petugas == 0 {
		req.Petugas = 1
	}
	if req.Petugas != 1 && req.Petugas != 2 {
		metricsx.IncLaporanRejected()
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "petugas must be 1 or 2", nil)
		return
	}

	estimasi := int(float64(req.JumlahMotor) * req.MenitPerMotor * float64(req.Petugas))
	report, err := a.submitReport(r.Context(), req.StationID, req.JumlahMotor, estimasi)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			metricsx.IncLaporanRejected()
			httpx.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "spbu not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to store report", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, laporanResponse{QueueReport: report, Diterima: true})
}

// submitReport persists one observation together with its outbox event,
// applies it to the in-memory aggregate, and mirrors it to influx.
func (a *app) submitReport(ctx context.Context, stationID uuid.UUID, jumlahMotor int, estimasiMenit int) (models.QueueReport, error) {
	station, err := a.stations.GetStationByID(ctx, stationID)
	if err != nil {
		return models.QueueReport{}, err
	}

	report := models.QueueReport{
		ReportID:      uuid.New(),
		StationID:     station.StationID,
		JumlahMotor:   jumlahMotor,
		EstimasiMenit: estimasiMenit,
		TrafficStatus: traffic.Classify(estimasiMenit),
		CreatedAt:     time.Now().UTC(),
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return models.QueueReport{}, err
	}
	envelope, err := json.Marshal(events.Envelope{
		EventID:       uuid.New(),
		OccurredAt:    report.CreatedAt,
		AggregateType: events.AggregateLaporan,
		AggregateID:   report.ReportID,
		EventType:     events.EventLaporanCreated,
		Payload:       payload,
	})
	if err != nil {
		return models.QueueReport{}, err
	}

	report, err = a.reports.InsertReportWithOutbox(ctx, report, models.OutboxEvent{
		AggregateType: events.AggregateLaporan,
		AggregateID:   report.ReportID,
		Topic:         events.TopicLaporanAntrian,
		Payload:       envelope,
	})
	if err != nil {
		return models.QueueReport{}, err
	}

	metricsx.IncLaporanSubmitted(string(report.TrafficStatus))
	if err := a.engine.Ingest(report); err != nil {
		a.logger.Warn(ctx, "ingest_failed", "report stored but not applied in memory",
			slog.String("spbu_id", stationID.String()),
			slog.String("error", err.Error()),
		)
	}

	if a.influx != nil {
		if err := a.influx.WritePoint(ctx, "antrian_spbu", map[string]string{
			"spbu_id": station.StationID.String(),
			"kota":    station.Kota,
		}, map[string]any{
			"jumlah_motor":   report.JumlahMotor,
			"estimasi_menit": report.EstimasiMenit,
			"traffic_status": string(report.TrafficStatus),
		}, report.CreatedAt); err != nil {
			metricsx.IncInfluxWriteFailure()
			a.logger.Warn(ctx, "influx_write_failed", "failed to write report point",
				slog.String("error", err.Error()),
			)
		}
	}
	return report, nil
}

func (a *app) handleListStations(w http.ResponseWriter, r *http.Request) {
	kota := strings.TrimSpace(r.URL.Query().Get("kota"))
	sortKey := strings.TrimSpace(r.URL.Query().Get("sort"))
	if sortKey == "" {
		sortKey = ranker.SortAntrian
	}
	if sortKey != ranker.SortAntrian && sortKey != ranker.SortTraffic {
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "sort must be antrian or traffic", nil)
		return
	}

	stations := ranker.FilterKota(a.engine.Snapshot(), kota)
	ranker.Sort(stations, sortKey)

	now := time.Now()
	out := make([]stationResponse, 0, len(stations))
	for _, s := range stations {
		out = append(out, stationResponse{
			StationAggregate: s,
			UpdateLabel:      freshness.Label(s.LastUpdate, now),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"spbu":  out,
		"total": len(out),
	})
}

func (a *app) handleRecentReports(w http.ResponseWriter, r *http.Request) {
	reports, err := a.reports.ListRecentReports(r.Context(), 10)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load reports", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"laporan": reports,
		"total":   len(reports),
	})
}
