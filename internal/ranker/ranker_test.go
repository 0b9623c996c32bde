package ranker

import (
	"testing"

	"antrian-bbm-service/internal/models"
	"antrian-bbm-service/internal/traffic"
)

func agg(nama, kota string, antrian int, status traffic.Status) models.StationAggregate {
	a := models.StationAggregate{AntrianMotor: antrian, TrafficStatus: status}
	a.Nama = nama
	a.Kota = kota
	return a
}

func names(stations []models.StationAggregate) []string {
	out := make([]string, len(stations))
	for i, s := range stations {
		out[i] = s.Nama
	}
	return out
}

func TestFilterKota(t *testing.T) {
	in := []models.StationAggregate{
		agg("A", "Jakarta", 5, traffic.StatusLancar),
		agg("B", "Bandung", 3, traffic.StatusRamai),
		agg("C", "jakarta", 8, traffic.StatusMacet),
	}

	got := FilterKota(in, "Jakarta")
	if len(got) != 2 || got[0].Nama != "A" || got[1].Nama != "C" {
		t.Fatalf("city filter must match case-insensitively, got %v", names(got))
	}

	if got := FilterKota(in, "semua"); len(got) != 3 {
		t.Fatalf("semua must bypass the filter, got %d stations", len(got))
	}
	if got := FilterKota(in, ""); len(got) != 3 {
		t.Fatalf("empty kota must bypass the filter, got %d stations", len(got))
	}
	if got := FilterKota(in, "Surabaya"); len(got) != 0 {
		t.Fatalf("unknown city must return empty, got %v", names(got))
	}
}

func TestSortAntrian(t *testing.T) {
	in := []models.StationAggregate{
		agg("A", "Jakarta", 12, traffic.StatusRamai),
		agg("B", "Jakarta", 0, traffic.StatusUnknown),
		agg("C", "Jakarta", 5, traffic.StatusLancar),
		agg("D", "Jakarta", 5, traffic.StatusMacet),
	}
	Sort(in, SortAntrian)
	want := []string{"B", "C", "D", "A"}
	got := names(in)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("antrian sort order %v, want %v (ties must be stable)", got, want)
		}
	}
}

func TestSortTraffic(t *testing.T) {
	in := []models.StationAggregate{
		agg("A", "Jakarta", 1, traffic.StatusUnknown),
		agg("B", "Jakarta", 2, traffic.StatusMacet),
		agg("C", "Jakarta", 3, traffic.StatusLancar),
		agg("D", "Jakarta", 4, traffic.StatusRamai),
		agg("E", "Jakarta", 5, traffic.StatusLancar),
	}
	Sort(in, SortTraffic)
	want := []string{"C", "E", "D", "B", "A"}
	got := names(in)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("traffic sort order %v, want %v (unknown last, ties stable)", got, want)
		}
	}
}

func TestSortUnknownKeyDefaultsToAntrian(t *testing.T) {
	in := []models.StationAggregate{
		agg("A", "Jakarta", 9, traffic.StatusLancar),
		agg("B", "Jakarta", 1, traffic.StatusMacet),
	}
	Sort(in, "whatever")
	if in[0].Nama != "B" {
		t.Fatalf("unknown sort key must fall back to antrian ordering, got %v", names(in))
	}
}
