package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// wireLayout mirrors the ISO-8601 shape the remote service expects
// (millisecond precision, always UTC).
const wireLayout = "2006-01-02T15:04:05.000Z07:00"

// DateLayout is the calendar-date form used by editing screens.
const DateLayout = "2006-01-02"

// Timestamp is a wire date. It decodes RFC 3339 timestamps (with or without
// fractional seconds) and bare calendar dates; null or "" decode to the zero
// time.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, normalised to UTC.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp accepts any of the wire forms.
func ParseTimestamp(value string) (Timestamp, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Timestamp{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", DateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("domain: unrecognised timestamp %q", value)
}

// String returns the wire form, or "" for the zero time.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Time.UTC().Format(wireLayout)
}

// Date returns the calendar date in UTC, "" for the zero time.
func (t Timestamp) Date() string {
	if t.IsZero() {
		return ""
	}
	return t.Time.UTC().Format(DateLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("domain: timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
