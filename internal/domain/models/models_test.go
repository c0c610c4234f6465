package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeframe(t *testing.T) {
	cases := []struct {
		in   string
		want Timeframe
		ok   bool
	}{
		{"M1", M1, true},
		{" h4 ", H4, true},
		{"d1", D1, true},
		{"W1", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := ParseTimeframe(c.in)
		if c.ok != (err == nil) || got != c.want {
			t.Fatalf("ParseTimeframe(%q)=%q,%v", c.in, got, err)
		}
		if !c.ok && !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("error must wrap ErrInvalidConfiguration: %v", err)
		}
	}

	if M15.Duration() != 15*time.Minute || D1.Duration() != 24*time.Hour || Timeframe("W1").Duration() != 0 {
		t.Fatalf("unexpected durations")
	}
	if keys := TimeframeKeys(); len(keys) != 16 || keys[0] != "M1" || keys[15] != "D1" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestParseSortMode(t *testing.T) {
	for in, want := range map[string]SortMode{"volume": SortByVolume, "PRICE": SortByPrice, " Price ": SortByPrice} {
		if got, err := ParseSortMode(in); err != nil || got != want {
			t.Fatalf("ParseSortMode(%q)=%q,%v", in, got, err)
		}
	}
	if _, err := ParseSortMode("time"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("want ErrInvalidConfiguration, got %v", err)
	}
}

func TestBarVolume(t *testing.T) {
	if v := (Bar{TickVolume: 7, RealVolume: 40}).Volume(); v != 40 {
		t.Fatalf("real volume must win, got %v", v)
	}
	if v := (Bar{TickVolume: 7}).Volume(); v != 7 {
		t.Fatalf("tick volume fallback, got %v", v)
	}
}
