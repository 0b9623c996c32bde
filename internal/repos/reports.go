package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antrian-bbm-service/internal/models"
)

type ReportsRepo struct {
	pool   *pgxpool.Pool
	outbox *OutboxRepo
}

func NewReportsRepo(pool *pgxpool.Pool, outbox *OutboxRepo) *ReportsRepo {
	return &ReportsRepo{pool: pool, outbox: outbox}
}

// InsertReportWithOutbox writes the report row and its outbox event in one
// transaction, so a report is never persisted without the notification that
// triggers readers to resync.
func (r *ReportsRepo) InsertReportWithOutbox(ctx context.Context, report models.QueueReport, event models.OutboxEvent) (models.QueueReport, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.QueueReport{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if report.ReportID == uuid.Nil {
		report.ReportID = uuid.New()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO laporan_antrian (report_id, station_id, jumlah_motor, estimasi_menit, traffic_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING report_id, station_id, jumlah_motor, estimasi_menit, traffic_status, created_at
	`, report.ReportID, report.StationID, report.JumlahMotor, report.EstimasiMenit, report.TrafficStatus, report.CreatedAt).
		Scan(&report.ReportID, &report.StationID, &report.JumlahMotor, &report.EstimasiMenit, &report.TrafficStatus, &report.CreatedAt)
	if err != nil {
		return models.QueueReport{}, err
	}

	if _, err = r.outbox.Insert(ctx, tx, event); err != nil {
		return models.QueueReport{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.QueueReport{}, err
	}
	return report, nil
}

// ListLatestPerStation returns the newest report for each station that has
// one. Stations without reports are simply absent from the result.
func (r *ReportsRepo) ListLatestPerStation(ctx context.Context) ([]models.QueueReport, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (station_id)
			report_id, station_id, jumlah_motor, estimasi_menit, traffic_status, created_at
		FROM laporan_antrian
		ORDER BY station_id, created_at DESC, report_id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.QueueReport
	for rows.Next() {
		var rep models.QueueReport
		if err := rows.Scan(&rep.ReportID, &rep.StationID, &rep.JumlahMotor, &rep.EstimasiMenit, &rep.TrafficStatus, &rep.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// ListRecentReports returns the newest reports across all stations joined
// with their station's display fields, for the live feed.
func (r *ReportsRepo) ListRecentReports(ctx context.Context, limit int) ([]models.ReportWithStation, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT l.report_id, l.station_id, l.jumlah_motor, l.estimasi_menit, l.traffic_status, l.created_at,
			s.nama, s.kota
		FROM laporan_antrian l
		JOIN stations s ON s.station_id = l.station_id
		ORDER BY l.created_at DESC, l.report_id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.ReportWithStation
	for rows.Next() {
		var rep models.ReportWithStation
		if err := rows.Scan(&rep.ReportID, &rep.StationID, &rep.JumlahMotor, &rep.EstimasiMenit, &rep.TrafficStatus, &rep.CreatedAt, &rep.StationNama, &rep.StationKota); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
