// Package traffic holds the network-wide queue severity scale derived from
// crowd reports. It is deliberately separate from the estimator's personal
// AMAN/WAJAR/TERLALU LAMA scale: the two use different thresholds for
// different audiences and must not be unified.
package traffic

// Status is the crowd-facing severity label for a station's queue.
type Status string

const (
	StatusLancar  Status = "lancar"
	StatusRamai   Status = "ramai"
	StatusMacet   Status = "macet"
	StatusUnknown Status = "unknown"
)

// Classify maps an estimate in minutes onto the crowd severity scale.
func Classify(estimasiMenit int) Status {
	switch {
	case estimasiMenit > 90:
		return StatusMacet
	case estimasiMenit > 30:
		return StatusRamai
	default:
		return StatusLancar
	}
}

// SeverityRank orders statuses for sorting: calmer stations first, stations
// without any report last.
func SeverityRank(s Status) int {
	switch s {
	case StatusLancar:
		return 0
	case StatusRamai:
		return 1
	case StatusMacet:
		return 2
	default:
		return 3
	}
}

// Valid reports whether s is one of the submittable statuses. Unknown is a
// derived display state, never written by a reporter.
func Valid(s Status) bool {
	switch s {
	case StatusLancar, StatusRamai, StatusMacet:
		return true
	default:
		return false
	}
}
