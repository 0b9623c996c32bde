package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"antrian-bbm-service/internal/models"
)

type StationsRepo struct {
	pool *pgxpool.Pool
}

func NewStationsRepo(pool *pgxpool.Pool) *StationsRepo {
	return &StationsRepo{pool: pool}
}

const stationColumns = `station_id, kode, nama, alamat, kota, lat, lng, buka_24_jam, created_at`

// ListStations returns every station ordered by kota then nama. This ordering
// is the base ordering the list endpoint's stable sorts preserve on ties.
func (r *StationsRepo) ListStations(ctx context.Context) ([]models.Station, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+stationColumns+`
		FROM stations
		ORDER BY kota ASC, nama ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var s models.Station
		if err := rows.Scan(&s.StationID, &s.Kode, &s.Nama, &s.Alamat, &s.Kota, &s.Lat, &s.Lng, &s.Buka24Jam, &s.CreatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

func (r *StationsRepo) GetStationByID(ctx context.Context, stationID uuid.UUID) (models.Station, error) {
	var s models.Station
	err := r.pool.QueryRow(ctx, `
		SELECT `+stationColumns+`
		FROM stations
		WHERE station_id = $1
	`, stationID).
		Scan(&s.StationID, &s.Kode, &s.Nama, &s.Alamat, &s.Kota, &s.Lat, &s.Lng, &s.Buka24Jam, &s.CreatedAt)
	return s, err
}
