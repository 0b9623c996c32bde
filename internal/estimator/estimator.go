// Package estimator turns a single user's queue observation into a personal
// wait-time estimate with advisory tips. It is pure: no clock access beyond
// the caller-supplied "now", no I/O, no shared state.
package estimator

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// PanjangMotorMeter is the assumed queue length one motorcycle occupies.
	PanjangMotorMeter = 2.1

	// KonsumsiIdleLiterPerJam is fuel burned per hour idling in the queue.
	KonsumsiIdleLiterPerJam = 0.1
)

// Tank capacity classes in liters, by motorcycle type.
const (
	TangkiMaticKecil  = 4.0
	TangkiMaticSedang = 5.5
	TangkiMaticBesar  = 7.0
	TangkiSport       = 11.0
)

// Service rates in minutes per motorcycle.
const (
	KecepatanLancar = 1.5
	KecepatanSedang = 2.5
	KecepatanLambat = 5.0
)

// Status is the personal advice scale. It is distinct from the crowd
// traffic scale in internal/traffic and uses its own thresholds.
type Status string

const (
	StatusAman        Status = "AMAN"
	StatusWajar       Status = "WAJAR"
	StatusTerlaluLama Status = "TERLALU LAMA"
)

var ErrInvalidInput = errors.New("estimator: jumlah motor must be positive")

type Pricing struct {
	Pertalite int
	Pertamax  int
}

func DefaultPricing() Pricing {
	return Pricing{Pertalite: 10000, Pertamax: 13500}
}

type Input struct {
	TangkiLiter   float64
	JumlahMotor   int
	MenitPerMotor float64
	Petugas       int
}

type BBMTerbuang struct {
	JamIdle float64 `json:"jam"`
	Liter   float64 `json:"liter"`
	Biaya   int     `json:"biaya"`
}

type Result struct {
	JumlahMotor    int         `json:"jumlah_motor"`
	TotalMenit     float64     `json:"total_menit"`
	Jam            int         `json:"jam"`
	Menit          int         `json:"menit"`
	WaktuSelesai   string      `json:"waktu_selesai"`
	Status         Status      `json:"status"`
	Warna          string      `json:"warna"`
	Saran          []string    `json:"saran"`
	BiayaPertalite int         `json:"biaya_pertalite"`
	BiayaPertamax  int         `json:"biaya_pertamax"`
	Terbuang       BBMTerbuang `json:"bbm_terbuang"`
}

// MotorFromMeter converts a physical queue length to a motorcycle count,
// rounding up so a partial slot still counts as a waiting vehicle.
func MotorFromMeter(meter float64) int {
	if meter <= 0 {
		return 0
	}
	return int(math.Ceil(meter / PanjangMotorMeter))
}

// MeterFromMotor converts a motorcycle count back to a queue length,
// rounded to one decimal place.
func MeterFromMotor(motor int) float64 {
	if motor <= 0 {
		return 0
	}
	return math.Round(float64(motor)*PanjangMotorMeter*10) / 10
}

// Calculate produces the full estimate for one queue observation. now is the
// caller's clock reading and anchors the completion time.
func Calculate(in Input, pricing Pricing, now time.Time) (Result, error) {
	if in.JumlahMotor <= 0 {
		return Result{}, ErrInvalidInput
	}
	if in.MenitPerMotor <= 0 {
		return Result{}, fmt.Errorf("estimator: menit per motor must be positive, got %v", in.MenitPerMotor)
	}
	if in.Petugas != 1 && in.Petugas != 2 {
		return Result{}, fmt.Errorf("estimator: petugas must be 1 or 2, got %d", in.Petugas)
	}
	if in.TangkiLiter <= 0 {
		return Result{}, fmt.Errorf("estimator: tangki must be positive, got %v", in.TangkiLiter)
	}

	totalMenit := float64(in.JumlahMotor) * in.MenitPerMotor * float64(in.Petugas)
	jam := int(totalMenit) / 60
	menit := int(totalMenit) % 60
	selesai := now.Add(time.Duration(totalMenit * float64(time.Minute)))
	waktuSelesai := selesai.Format("15:04")

	biayaPertalite := roundUpTo5000(in.TangkiLiter * float64(pricing.Pertalite))
	biayaPertamax := roundUpTo5000(in.TangkiLiter * float64(pricing.Pertamax))

	saran := []string{
		fmt.Sprintf("💰 Siapkan uang: Pertalite Rp%s / Pertamax Rp%s",
			formatRupiah(biayaPertalite), formatRupiah(biayaPertamax)),
	}

	var status Status
	var warna string
	switch {
	case totalMenit <= 45:
		status = StatusAman
		warna = "hijau"
		saran = append(saran,
			"✅ Waktu tunggu singkat, tetap di motor saja",
			"💵 Siapkan uang pas biar cepat",
		)
	case totalMenit <= 240:
		status = StatusWajar
		warna = "kuning"
		saran = append(saran,
			"🔧 Matikan mesin, gunakan standar samping",
			"📱 Manfaatkan waktu: baca atau dengar podcast",
			"👀 Waspada penyusup dari samping",
		)
	default:
		status = StatusTerlaluLama
		warna = "merah"
		saran = append(saran,
			"❌ Pertimbangkan untuk membatalkan",
			"⛽ Cari pom bensin lain atau eceran",
			"🌅 Coba datang besok pagi subuh",
		)
	}

	if in.TangkiLiter == TangkiMaticSedang {
		saran = append(saran, "🏍️ Aerox: Tidak perlu turun dari motor")
	}
	if in.Petugas == 2 {
		saran = append(saran, "⚠️ Petugas gantian = 2x lebih lama!")
	}

	jamIdle := totalMenit / 60
	liter := jamIdle * KonsumsiIdleLiterPerJam
	biayaTerbuang := int(math.Ceil(liter * float64(pricing.Pertalite)))

	return Result{
		JumlahMotor:    in.JumlahMotor,
		TotalMenit:     totalMenit,
		Jam:            jam,
		Menit:          menit,
		WaktuSelesai:   waktuSelesai,
		Status:         status,
		Warna:          warna,
		Saran:          saran,
		BiayaPertalite: biayaPertalite,
		BiayaPertamax:  biayaPertamax,
		Terbuang: BBMTerbuang{
			JamIdle: jamIdle,
			Liter:   liter,
			Biaya:   biayaTerbuang,
		},
	}, nil
}

// roundUpTo5000 rounds a raw rupiah amount up to the next multiple of 5000,
// so the "prepare cash" tip never names an amount below the actual cost.
func roundUpTo5000(raw float64) int {
	return int(math.Ceil(raw/5000.0)) * 5000
}

func formatRupiah(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}
	return string(out)
}
