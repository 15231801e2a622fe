// Package filter narrows a decoded JSON array to the elements whose
// timestamp falls inside a requested window.
package filter

import (
	"time"

	"github.com/sirupsen/logrus"
)

// TimestampField is the element key compared against the window bounds.
const TimestampField = "timestamp_epoch_ms"

var boundLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ByRange keeps the elements of value whose timestamp_epoch_ms lies in
// [startDate, endDate], both bounds inclusive. Relative order is
// preserved; elements without a numeric timestamp are dropped while
// filtering is active. The value passes through unchanged when it is not
// an array, when either bound is empty, or when a bound does not parse —
// an unparsable bound disables filtering rather than silently matching
// nothing.
func ByRange(value interface{}, startDate, endDate string) interface{} {
	if startDate == "" || endDate == "" {
		return value
	}

	arr, ok := value.([]interface{})
	if !ok {
		return value
	}

	start, ok := parseBound(startDate)
	if !ok {
		logrus.Warnf("Unparsable start_date %q, returning response unfiltered", startDate)
		return value
	}
	end, ok := parseBound(endDate)
	if !ok {
		logrus.Warnf("Unparsable end_date %q, returning response unfiltered", endDate)
		return value
	}

	kept := make([]interface{}, 0, len(arr))
	for _, el := range arr {
		obj, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		ts, ok := obj[TimestampField].(float64)
		if !ok {
			continue
		}
		if ts >= start && ts <= end {
			kept = append(kept, el)
		}
	}
	return kept
}

// parseBound converts a date string to epoch milliseconds.
func parseBound(s string) (float64, bool) {
	for _, layout := range boundLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.UnixMilli()), true
		}
	}
	return 0, false
}
