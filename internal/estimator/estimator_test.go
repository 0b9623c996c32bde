package estimator

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func TestCalculateArithmetic(t *testing.T) {
	in := Input{TangkiLiter: TangkiMaticKecil, JumlahMotor: 40, MenitPerMotor: KecepatanSedang, Petugas: 1}
	res, err := Calculate(in, DefaultPricing(), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalMenit != 100 {
		t.Fatalf("expected 100 total minutes, got %v", res.TotalMenit)
	}
	if res.Jam != 1 || res.Menit != 40 {
		t.Fatalf("expected 1h40m, got %dh%dm", res.Jam, res.Menit)
	}
	if res.WaktuSelesai != "09:40" {
		t.Fatalf("expected completion 09:40, got %s", res.WaktuSelesai)
	}
}

func TestCalculateHoursMinutesDecomposition(t *testing.T) {
	cases := []Input{
		{TangkiLiter: 4, JumlahMotor: 1, MenitPerMotor: 1.5, Petugas: 1},
		{TangkiLiter: 4, JumlahMotor: 7, MenitPerMotor: 2.5, Petugas: 2},
		{TangkiLiter: 11, JumlahMotor: 33, MenitPerMotor: 5, Petugas: 1},
		{TangkiLiter: 7, JumlahMotor: 121, MenitPerMotor: 1.5, Petugas: 2},
	}
	for _, in := range cases {
		res, err := Calculate(in, DefaultPricing(), testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := float64(in.JumlahMotor) * in.MenitPerMotor * float64(in.Petugas)
		if res.TotalMenit != want {
			t.Fatalf("total minutes = %v, want %v", res.TotalMenit, want)
		}
		if res.Jam*60+res.Menit != int(res.TotalMenit) {
			t.Fatalf("jam*60+menit = %d, want floor(%v)", res.Jam*60+res.Menit, res.TotalMenit)
		}
	}
}

func TestStatusBoundaries(t *testing.T) {
	cases := []struct {
		motor   int
		menit   float64
		petugas int
		want    Status
	}{
		{30, 1.5, 1, StatusAman},         // 45.0 exactly
		{31, 1.5, 1, StatusWajar},        // 46.5
		{96, 2.5, 1, StatusWajar},        // 240.0 exactly
		{97, 2.5, 1, StatusTerlaluLama},  // 242.5
		{161, 1.5, 2, StatusTerlaluLama}, // 483.0
	}
	for _, c := range cases {
		res, err := Calculate(Input{TangkiLiter: 4, JumlahMotor: c.motor, MenitPerMotor: c.menit, Petugas: c.petugas}, DefaultPricing(), testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Status != c.want {
			t.Fatalf("%d motor x %v menit x %d petugas (= %v menit): status %s, want %s",
				c.motor, c.menit, c.petugas, res.TotalMenit, res.Status, c.want)
		}
	}
}

func TestCostRoundsUpToNext5000(t *testing.T) {
	// 5.5 L x 10000 = 55000, already a multiple.
	res, err := Calculate(Input{TangkiLiter: 5.5, JumlahMotor: 10, MenitPerMotor: 1.5, Petugas: 1}, DefaultPricing(), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BiayaPertalite != 55000 {
		t.Fatalf("expected exact 55000, got %d", res.BiayaPertalite)
	}

	// 5.5 L x 13500 = 74250 -> 75000.
	if res.BiayaPertamax != 75000 {
		t.Fatalf("expected 74250 rounded up to 75000, got %d", res.BiayaPertamax)
	}

	// 4 L x 13300 = 53200 -> 55000.
	res, err = Calculate(Input{TangkiLiter: 4, JumlahMotor: 10, MenitPerMotor: 1.5, Petugas: 1}, Pricing{Pertalite: 10000, Pertamax: 13300}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BiayaPertamax != 55000 {
		t.Fatalf("expected 53200 rounded up to 55000, got %d", res.BiayaPertamax)
	}
}

func TestTipOrdering(t *testing.T) {
	res, err := Calculate(Input{TangkiLiter: TangkiMaticSedang, JumlahMotor: 40, MenitPerMotor: 2.5, Petugas: 2}, DefaultPricing(), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Saran) != 6 {
		t.Fatalf("expected 6 tips (cost + 3 status + aerox + petugas), got %d: %#v", len(res.Saran), res.Saran)
	}
	if !strings.Contains(res.Saran[0], "Siapkan uang") {
		t.Fatalf("cost tip must come first, got %q", res.Saran[0])
	}
	if !strings.Contains(res.Saran[4], "Aerox") {
		t.Fatalf("expected Aerox tip at position 4, got %q", res.Saran[4])
	}
	if !strings.Contains(res.Saran[5], "gantian") {
		t.Fatalf("expected attendant warning last, got %q", res.Saran[5])
	}
}

func TestIdleWaste(t *testing.T) {
	// 80 motor x 1.5 = 120 minutes = 2 hours idle, 0.2 L, 2000 Rp.
	res, err := Calculate(Input{TangkiLiter: 4, JumlahMotor: 80, MenitPerMotor: 1.5, Petugas: 1}, DefaultPricing(), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Terbuang.JamIdle != 2 {
		t.Fatalf("expected 2 idle hours, got %v", res.Terbuang.JamIdle)
	}
	if res.Terbuang.Biaya != 2000 {
		t.Fatalf("expected 2000 rupiah wasted, got %d", res.Terbuang.Biaya)
	}
}

func TestInvalidInput(t *testing.T) {
	_, err := Calculate(Input{TangkiLiter: 4, JumlahMotor: 0, MenitPerMotor: 1.5, Petugas: 1}, DefaultPricing(), testNow)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero count, got %v", err)
	}
	_, err = Calculate(Input{TangkiLiter: 4, JumlahMotor: -3, MenitPerMotor: 1.5, Petugas: 1}, DefaultPricing(), testNow)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative count, got %v", err)
	}
	if _, err := Calculate(Input{TangkiLiter: 4, JumlahMotor: 5, MenitPerMotor: 1.5, Petugas: 3}, DefaultPricing(), testNow); err == nil {
		t.Fatalf("expected error for petugas=3")
	}
}

func TestMeterMotorRoundTrip(t *testing.T) {
	for _, motor := range []int{1, 2, 7, 40, 113} {
		meter := MeterFromMotor(motor)
		back := MotorFromMeter(meter)
		if back != motor {
			t.Fatalf("motor %d -> %.1f m -> %d motor", motor, meter, back)
		}
	}
	for _, meter := range []float64{1, 2.1, 10, 84.5, 200} {
		motor := MotorFromMeter(meter)
		back := MeterFromMotor(motor)
		if diff := back - meter; diff < -PanjangMotorMeter || diff > PanjangMotorMeter {
			t.Fatalf("meter %.1f -> %d motor -> %.1f m, drift beyond one slot", meter, motor, back)
		}
	}
}

func TestMotorFromMeterRoundsUp(t *testing.T) {
	if got := MotorFromMeter(2.2); got != 2 {
		t.Fatalf("2.2 m must round up to 2 motor, got %d", got)
	}
	if got := MotorFromMeter(2.1); got != 1 {
		t.Fatalf("2.1 m is exactly one slot, got %d", got)
	}
	if got := MotorFromMeter(0); got != 0 {
		t.Fatalf("zero length must give zero motor, got %d", got)
	}
}

func TestFormatRupiah(t *testing.T) {
	cases := map[int]string{
		500:     "500",
		5000:    "5.000",
		55000:   "55.000",
		1250000: "1.250.000",
	}
	for n, want := range cases {
		if got := formatRupiah(n); got != want {
			t.Fatalf("formatRupiah(%d) = %q, want %q", n, got, want)
		}
	}
}
