package tiles

import (
	"testing"
	"time"
)

func TestIsClockTime(t *testing.T) {
	valid := []string{"00:00", "9:15", "09:15", "23:59"}
	for _, s := range valid {
		if !IsClockTime(s) {
			t.Fatalf("expected %q to parse as clock time", s)
		}
	}
	invalid := []string{"On time", "Delayed", "Cancelled", "24:00", "12:60", ""}
	for _, s := range invalid {
		if IsClockTime(s) {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}

func TestEffectiveTimePrefersLiveEstimate(t *testing.T) {
	d := Departure{ScheduledDisplay: "10:05", ExpectedDisplay: "10:12"}
	if got := d.EffectiveTime(); got != "10:12" {
		t.Fatalf("expected live estimate, got %q", got)
	}
	d.ExpectedDisplay = "On time"
	if got := d.EffectiveTime(); got != "10:05" {
		t.Fatalf("expected scheduled fallback, got %q", got)
	}
}

func TestMinutesToDeparture(t *testing.T) {
	at := func(hour, min int) time.Time {
		return time.Date(2026, 3, 14, hour, min, 0, 0, time.UTC)
	}
	cases := []struct {
		name   string
		now    time.Time
		dep    Departure
		want   int
		wantOK bool
	}{
		{
			name:   "simple future",
			now:    at(9, 30),
			dep:    Departure{ScheduledDisplay: "09:45", ExpectedDisplay: "On time"},
			want:   15,
			wantOK: true,
		},
		{
			name:   "just left during the day",
			now:    at(23, 55),
			dep:    Departure{ScheduledDisplay: "23:50", ExpectedDisplay: "On time"},
			want:   0,
			wantOK: true,
		},
		{
			name:   "late night rollover",
			now:    at(23, 0),
			dep:    Departure{ScheduledDisplay: "07:30", ExpectedDisplay: "On time"},
			want:   510,
			wantOK: true,
		},
		{
			name:   "early morning rollover",
			now:    at(1, 30),
			dep:    Departure{ScheduledDisplay: "01:00", ExpectedDisplay: "On time"},
			want:   1410,
			wantOK: true,
		},
		{
			name:   "apparently past midday",
			now:    at(14, 0),
			dep:    Departure{ScheduledDisplay: "13:45", ExpectedDisplay: "On time"},
			want:   0,
			wantOK: true,
		},
		{
			name:   "cancelled has no time",
			now:    at(9, 0),
			dep:    Departure{ScheduledDisplay: "Cancelled", ExpectedDisplay: "Cancelled"},
			wantOK: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := MinutesToDeparture(tc.now, tc.dep)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("minutes = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNextDepartureSkipsUnparseableRows(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	rows := []Departure{
		{ScheduledDisplay: "Cancelled", ExpectedDisplay: "Cancelled", Destination: "Oxford"},
		{ScheduledDisplay: "09:20", ExpectedDisplay: "On time", Destination: "Reading"},
	}
	dep, mins, ok := NextDeparture(now, rows)
	if !ok {
		t.Fatal("expected a parseable departure")
	}
	if dep.Destination != "Reading" || mins != 20 {
		t.Fatalf("unexpected next departure %+v at %d minutes", dep, mins)
	}

	if _, _, ok := NextDeparture(now, nil); ok {
		t.Fatal("expected no departure for empty board")
	}
}
