package ics

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/louisbranch/mocalendar/internal/calendar/domain"
)

func TestExportRendersFloatingTimes(t *testing.T) {
	t.Parallel()

	end := time.Date(2024, time.March, 5, 11, 30, 0, 0, time.UTC)
	events := []domain.Event{
		{
			ID:          "evt-1",
			Name:        "Team sync",
			Description: "Weekly status",
			Type:        domain.TypeEvent,
			StartTime:   time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
			EndTime:     &end,
		},
		{
			ID:        "evt-2",
			Name:      "Essay due",
			Type:      domain.TypeAssignment,
			StartTime: time.Date(2024, time.March, 6, 23, 59, 0, 0, time.UTC),
		},
	}

	var buf strings.Builder
	if err := Export(&buf, events); err != nil {
		t.Fatalf("Export() = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "DTSTART:20240305T100000\r\n") {
		t.Fatalf("missing floating DTSTART, got:\n%s", out)
	}
	if !strings.Contains(out, "DTEND:20240305T113000\r\n") {
		t.Fatalf("missing floating DTEND, got:\n%s", out)
	}
	if strings.Contains(out, "DTSTART:20240306T235900Z") {
		t.Fatalf("start times must not carry a zone designator:\n%s", out)
	}
	if !strings.Contains(out, "CATEGORIES:ASSIGNMENT") {
		t.Fatalf("missing event type category, got:\n%s", out)
	}

	// The output must remain parseable by the same library.
	cal, err := ical.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse exported calendar: %v", err)
	}
	if got := len(cal.Events()); got != 2 {
		t.Fatalf("parsed %d events, want 2", got)
	}
	for _, ve := range cal.Events() {
		if ve.GetProperty(ical.ComponentPropertyUniqueId) == nil {
			t.Fatal("exported event missing UID")
		}
	}
}

func TestExportOpenEndedEventOmitsDtEnd(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	err := Export(&buf, []domain.Event{{
		ID:        "evt-3",
		Name:      "Reading",
		Type:      domain.TypeAssignment,
		StartTime: time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("Export() = %v", err)
	}
	if strings.Contains(buf.String(), "DTEND") {
		t.Fatalf("open-ended event must not carry DTEND:\n%s", buf.String())
	}
}

func TestExportEmptyListStillValidCalendar(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	if err := Export(&buf, nil); err != nil {
		t.Fatalf("Export() = %v", err)
	}
	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("parse exported calendar: %v", err)
	}
	if len(cal.Events()) != 0 {
		t.Fatalf("expected no events, got %d", len(cal.Events()))
	}
}
