package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// wireLayout is how timestamps are rendered in responses: ISO-8601 without
// an offset, always in UTC.
const wireLayout = "2006-01-02T15:04:05.999999"

// DateLayout renders the calendar date of a timestamp.
const DateLayout = "2006-01-02"

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	DateLayout,
}

// Timestamp is a UTC point in time that accepts both RFC 3339 and naive
// ISO-8601 input. Naive values are taken as UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalises t to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp parses s as RFC 3339 or as a naive ISO-8601 date-time.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewTimestamp(t), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid date-time %q", s)
}

// String renders the timestamp in wire form.
func (t Timestamp) String() string {
	return t.UTC().Format(wireLayout)
}

// Date renders the calendar date in wire form.
func (t Timestamp) Date() string {
	return t.UTC().Format(DateLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date-time must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
