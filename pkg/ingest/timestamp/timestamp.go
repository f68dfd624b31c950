// Package timestamp normalizes the heterogeneous timestamp encodings found
// in Teams exports into UTC instants. Call-log data routinely mixes ISO-8601
// strings and epoch milliseconds within a single record, so every consumer
// goes through Normalize before comparing or formatting.
package timestamp

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is the formatting used for string-valued time attributes.
const DisplayLayout = "2006-01-02 15:04:05"

// Epoch values above this threshold are interpreted as milliseconds.
// Seconds-precision values stay below it until the year 2286.
const millisThreshold = 9999999999

// ISO layouts accepted in order. Zone-less layouts are interpreted as UTC,
// matching the exporter's behavior.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Normalize parses a raw timestamp value into a UTC instant. It accepts
// ISO-8601 strings (with or without fractional seconds and zone offset),
// epoch milliseconds or seconds as JSON numbers, and the same epoch values
// serialized as strings. Unparsable or absent input returns ok=false, never
// an error: timestamp absence is common and must not abort record handling.
func Normalize(raw interface{}) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC(), true
	case float64:
		return fromEpoch(v)
	case int64:
		return fromEpoch(float64(v))
	case int:
		return fromEpoch(float64(v))
	case string:
		return normalizeString(v)
	default:
		return time.Time{}, false
	}
}

func normalizeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if strings.Contains(s, "T") && (strings.Contains(s, "-") || strings.Contains(s, ":")) {
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		// Trailing Z with no offset support in the zone-less layouts.
		if trimmed := strings.TrimSuffix(s, "Z"); trimmed != s {
			for _, layout := range isoLayouts[2:] {
				if t, err := time.Parse(layout, trimmed); err == nil {
					return t.UTC(), true
				}
			}
		}
		return time.Time{}, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(f)
	}
	return time.Time{}, false
}

func fromEpoch(v float64) (time.Time, bool) {
	if v <= 0 {
		return time.Time{}, false
	}
	if v > millisThreshold {
		v = v / 1000.0
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC(), true
}

// NormalizePtr is Normalize returning a pointer, for optional record fields.
func NormalizePtr(raw interface{}) *time.Time {
	t, ok := Normalize(raw)
	if !ok {
		return nil
	}
	return &t
}

// Display renders a raw timestamp in the canonical display form
// ("2006-01-02 15:04:05" UTC). Unparsable input renders as the raw string
// so degraded values stay visible to investigators instead of vanishing.
func Display(raw interface{}) string {
	if t, ok := Normalize(raw); ok {
		return t.Format(DisplayLayout)
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Duration computes the elapsed time between two raw timestamps and formats
// it as HH:MM:SS. The endpoints may use different source encodings. Returns
// ok=false when either endpoint is unparsable or end precedes start; a
// negative duration is never produced.
func Duration(start, end interface{}) (string, bool) {
	s, okS := Normalize(start)
	e, okE := Normalize(end)
	if !okS || !okE {
		return "", false
	}
	if e.Before(s) {
		return "", false
	}

	total := int64(e.Sub(s).Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds), true
}
