// Package ranker filters and orders station aggregates for the list endpoint.
package ranker

import (
	"sort"
	"strings"

	"antrian-bbm-service/internal/models"
	"antrian-bbm-service/internal/traffic"
)

// Sort keys accepted by the station list endpoint.
const (
	SortAntrian = "antrian"
	SortTraffic = "traffic"
)

// KotaSemua disables the city filter.
const KotaSemua = "semua"

// FilterKota keeps stations in the given city, matched case-insensitively.
// An empty value or "semua" returns the input unchanged.
func FilterKota(stations []models.StationAggregate, kota string) []models.StationAggregate {
	if kota == "" || strings.EqualFold(kota, KotaSemua) {
		return stations
	}
	out := make([]models.StationAggregate, 0, len(stations))
	for _, s := range stations {
		if strings.EqualFold(s.Kota, kota) {
			out = append(out, s)
		}
	}
	return out
}

// Sort orders the slice in place. "antrian" puts the shortest queue first,
// "traffic" the calmest station first. Ties keep their existing order, so the
// caller's base ordering (kota, nama) shows through.
func Sort(stations []models.StationAggregate, key string) {
	switch key {
	case SortTraffic:
		sort.SliceStable(stations, func(i, j int) bool {
			return traffic.SeverityRank(stations[i].TrafficStatus) < traffic.SeverityRank(stations[j].TrafficStatus)
		})
	default:
		sort.SliceStable(stations, func(i, j int) bool {
			return stations[i].AntrianMotor < stations[j].AntrianMotor
		})
	}
}
