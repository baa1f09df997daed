package schedule

import (
	"fmt"

	"fleetops-backend/internal/errs"
)

// TimeWindow is a half-open [departure, arrival) interval of local wall-clock
// time within a single date. Times are "HH:MM" 24h strings; the zero-padded
// form means lexicographic comparison matches chronological order, but the
// window keeps parsed minutes so malformed input is rejected up front.
type TimeWindow struct {
	Departure string
	Arrival   string

	depMin int
	arrMin int
}

// parseHHMM converts "HH:MM" to minutes since midnight.
func parseHHMM(s string) (int, error) {
	var h, m int
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return h*60 + m, nil
}

// NewTimeWindow validates both endpoints and that departure precedes arrival.
func NewTimeWindow(departure, arrival string) (TimeWindow, error) {
	dep, err := parseHHMM(departure)
	if err != nil {
		return TimeWindow{}, errs.Validation("departureTime", "%v", err)
	}
	arr, err := parseHHMM(arrival)
	if err != nil {
		return TimeWindow{}, errs.Validation("arrivalTime", "%v", err)
	}
	if dep >= arr {
		return TimeWindow{}, errs.Validation("arrivalTime", "arrival %s must be after departure %s", arrival, departure)
	}
	return TimeWindow{Departure: departure, Arrival: arrival, depMin: dep, arrMin: arr}, nil
}

// Overlaps reports whether two windows intersect. Half-open semantics:
// back-to-back windows where one arrival equals the other departure do not
// overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.depMin < other.arrMin && other.depMin < w.arrMin
}

func (w TimeWindow) String() string {
	return w.Departure + "-" + w.Arrival
}
