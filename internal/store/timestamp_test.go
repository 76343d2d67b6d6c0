package store

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizeTimestampShapes(t *testing.T) {
	want := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  any
	}{
		{"seconds epoch float", float64(want.Unix())},
		{"seconds epoch int", want.Unix()},
		{"millis epoch", float64(want.UnixMilli())},
		{"json number", json.Number("1704879000")},
		{"rfc3339", "2024-01-10T09:30:00Z"},
		{"epoch in string", "1704879000"},
		{"native time", want},
		{"firestore wrapper", map[string]any{"seconds": float64(want.Unix())}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeTimestamp(tc.raw)
			if !ok {
				t.Fatalf("NormalizeTimestamp(%v) not resolved", tc.raw)
			}
			if !got.Equal(want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestNormalizeTimestampUnresolvable(t *testing.T) {
	cases := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"empty string", ""},
		{"garbage string", "next tuesday"},
		{"zero epoch", float64(0)},
		{"negative epoch", float64(-5)},
		{"zero time", time.Time{}},
		{"unknown map", map[string]any{"date": "2024-01-10"}},
		{"bool", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := NormalizeTimestamp(tc.raw); ok {
				t.Errorf("NormalizeTimestamp(%v) unexpectedly resolved", tc.raw)
			}
		})
	}
}

func TestNormalizeTimestampDateOnly(t *testing.T) {
	got, ok := NormalizeTimestamp("2024-01-10")
	if !ok {
		t.Fatal("date-only string not resolved")
	}
	want := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
