package store

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// millisCutoff separates seconds-epoch values from milliseconds-epoch
// values. Anything above it is treated as milliseconds; the crossover sits
// around the year 33658 for seconds, so real data never straddles it.
const millisCutoff = 1e12

// NormalizeTimestamp converts the timestamp shapes the document store
// delivers (seconds epoch, milliseconds epoch, RFC 3339 string, native
// time.Time) into a single instant. The second return value is false when
// the raw value cannot be resolved; callers degrade to an "unknown date"
// sentinel instead of failing the record.
func NormalizeTimestamp(raw any) (time.Time, bool) {
	switch val := raw.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return val, true
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false
		}
		return *val, true
	case float64:
		return epochToTime(val)
	case int64:
		return epochToTime(float64(val))
	case int:
		return epochToTime(float64(val))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return epochToTime(f)
	case string:
		return parseTimestampString(val)
	case map[string]any:
		// Firestore-style {"seconds": n, "nanoseconds": n} wrappers.
		if secs, ok := val["seconds"]; ok {
			return NormalizeTimestamp(secs)
		}
		if secs, ok := val["_seconds"]; ok {
			return NormalizeTimestamp(secs)
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func epochToTime(f float64) (time.Time, bool) {
	if f <= 0 {
		return time.Time{}, false
	}
	if f >= millisCutoff {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	secs := int64(f)
	nanos := int64((f - float64(secs)) * float64(time.Second))
	return time.Unix(secs, nanos).UTC(), true
}

func parseTimestampString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return epochToTime(f)
	}
	return time.Time{}, false
}
