package usage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// floatingLayout matches timestamps written without a zone, as in
// 2025-01-01T07:30:00.123456. Fractional seconds are optional when parsing.
const floatingLayout = "2006-01-02T15:04:05"

// Timestamp is a time.Time that also decodes zone-less ISO values. Such
// values are floating until anchored to a location by Load.
type Timestamp struct {
	time.Time
	floating bool
}

// At wraps t as a Timestamp.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// MarshalJSON always writes RFC 3339 with the zone offset.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return ts.Time.MarshalJSON()
}

// UnmarshalJSON accepts RFC 3339 strings, zone-less ISO strings (with a T or
// a space separator), empty strings and null.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*ts = Timestamp{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		*ts = Timestamp{Time: t}
		return nil
	}
	t, err := time.Parse(floatingLayout, strings.Replace(raw, " ", "T", 1))
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", raw, err)
	}
	*ts = Timestamp{Time: t, floating: true}
	return nil
}

// anchor reads a floating wall-clock value in loc.
func (ts *Timestamp) anchor(loc *time.Location) {
	if !ts.floating {
		return
	}
	t := ts.Time
	ts.Time = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	ts.floating = false
}
