package db

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNullStringJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A NullString `json:"a"`
		B NullString `json:"b"`
	}{A: NewNullString("https://example.com/a.jpg"), B: NewNullString("")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"a":"https://example.com/a.jpg","b":null}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}

	var back struct {
		A NullString `json:"a"`
		B NullString `json:"b"`
	}
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.A.Valid || back.A.String != "https://example.com/a.jpg" {
		t.Errorf("a = %+v", back.A)
	}
	if back.B.Valid {
		t.Errorf("b should be null, got %+v", back.B)
	}
}

func TestNullTimeJSON(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	b, err := json.Marshal(NewNullTime(ts))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-03-01T12:30:00Z"` {
		t.Errorf("got %s", b)
	}

	var back NullTime
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Valid || !back.Time.Equal(ts) {
		t.Errorf("round trip mismatch: %+v", back)
	}

	b, _ = json.Marshal(NullTime{})
	if string(b) != "null" {
		t.Errorf("zero NullTime should encode as null, got %s", b)
	}
}

func TestNullStringScan(t *testing.T) {
	var s NullString
	if err := s.Scan("video.mp4"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !s.Valid || s.String != "video.mp4" {
		t.Errorf("scan result %+v", s)
	}
	if err := s.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if s.Valid {
		t.Errorf("expected invalid after scanning nil")
	}
}
