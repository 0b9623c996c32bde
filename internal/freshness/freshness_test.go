package freshness

import (
	"testing"
	"time"
)

func TestLabel(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	cases := []struct {
		name string
		last *time.Time
		want string
	}{
		{"nil", nil, "Belum ada laporan"},
		{"just now", at(10 * time.Second), "Baru saja"},
		{"59s", at(59 * time.Second), "Baru saja"},
		{"1m", at(time.Minute), "1 menit lalu"},
		{"59m", at(59 * time.Minute), "59 menit lalu"},
		{"1h", at(time.Hour), "1 jam lalu"},
		{"90m", at(90 * time.Minute), "1 jam lalu"},
		{"23h", at(23 * time.Hour), "23 jam lalu"},
		{"25h", at(25 * time.Hour), "1 hari lalu"},
		{"3d", at(72 * time.Hour), "3 hari lalu"},
		{"future", at(-30 * time.Second), "Baru saja"},
	}
	for _, c := range cases {
		if got := Label(c.last, now); got != c.want {
			t.Fatalf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}
