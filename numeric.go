package timeexecution

import (
	"time"
)

// ToFloat64 converts any Go numeric value to a float64. Durations are converted to milliseconds.
// The boolean result is false for non-numeric values.
func ToFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case time.Duration:
		return float64(n) / float64(time.Millisecond), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}

	if i, ok := ToInt64(v); ok {
		return float64(i), true
	}

	return 0, false
}

// ToInt64 converts integral Go values to an int64. Floats, durations, and uint64 values that do not
// fit are rejected.
func ToInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= 1<<63-1
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= 1<<63-1
	}

	return 0, false
}

// IsNumeric reports whether v can serve as a metric value.
func IsNumeric(v interface{}) bool {
	_, ok := ToFloat64(v)
	return ok
}
