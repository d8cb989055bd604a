package db

import (
	"database/sql"
	"encoding/json"
	"time"
)

// NullString is a sql.NullString that encodes to JSON as a string or null.
// Used for optional columns such as image_url and video_url.
type NullString struct {
	sql.NullString
}

// NewNullString returns a valid NullString, or an invalid one for "".
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: s != ""}}
}

// MarshalJSON implements json.Marshaler
func (s NullString) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.String)
}

// UnmarshalJSON implements json.Unmarshaler
func (s *NullString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		s.String, s.Valid = "", false
		return nil
	}
	if err := json.Unmarshal(b, &s.String); err != nil {
		return err
	}
	s.Valid = true
	return nil
}

// NullTime is a sql.NullTime that encodes to JSON as an RFC 3339 string or null.
type NullTime struct {
	sql.NullTime
}

// NewNullTime returns a valid NullTime, or an invalid one for the zero time.
func NewNullTime(t time.Time) NullTime {
	return NullTime{sql.NullTime{Time: t, Valid: !t.IsZero()}}
}

// MarshalJSON implements json.Marshaler
func (t NullTime) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler
func (t *NullTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		t.Time, t.Valid = time.Time{}, false
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time, t.Valid = parsed, true
	return nil
}
