// Package freshness renders report ages as the short Indonesian labels the
// station list shows next to each aggregate.
package freshness

import (
	"fmt"
	"time"
)

// LabelNone is shown for stations that never received a report.
const LabelNone = "Belum ada laporan"

// Label formats the distance between now and lastUpdate. A nil timestamp means
// no report exists yet. Clock skew can put lastUpdate slightly in the future;
// that renders as "Baru saja" rather than a negative age.
func Label(lastUpdate *time.Time, now time.Time) string {
	if lastUpdate == nil {
		return LabelNone
	}
	d := now.Sub(*lastUpdate)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return "Baru saja"
	case d < time.Hour:
		return fmt.Sprintf("%d menit lalu", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d jam lalu", int(d.Hours()))
	default:
		return fmt.Sprintf("%d hari lalu", int(d.Hours())/24)
	}
}
