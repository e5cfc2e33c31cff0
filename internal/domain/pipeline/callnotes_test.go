package pipeline_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
)

func TestAppendCallNote_AppendOnly(t *testing.T) {
	l := leadAt(t, models.StageMeetAndCall)

	var snapshots [][]models.CallNote
	for i := 0; i < 5; i++ {
		next, err := pipeline.AppendCallNote(l, models.CallNote{
			Notes:    fmt.Sprintf("call %d", i),
			CallDate: "2026-03-1" + fmt.Sprint(i),
			CallTime: "10:00",
		}, "agent@brintelli.test", now)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		snapshots = append(snapshots, l.CallNotes)
		l = next
	}

	if len(l.CallNotes) != 5 {
		t.Fatalf("notes = %d, want 5", len(l.CallNotes))
	}
	for i, n := range l.CallNotes {
		if n.Notes != fmt.Sprintf("call %d", i) {
			t.Errorf("note %d = %q, want insertion order", i, n.Notes)
		}
	}
	// Earlier snapshots are untouched.
	for i, snap := range snapshots {
		if len(snap) != i {
			t.Errorf("snapshot %d has %d notes, want %d", i, len(snap), i)
		}
		for j, n := range snap {
			if n.Notes != fmt.Sprintf("call %d", j) {
				t.Errorf("snapshot %d note %d changed to %q", i, j, n.Notes)
			}
		}
	}
}

func TestAppendCallNote_DefaultsDateAndTime(t *testing.T) {
	l := leadAt(t, models.StageMeetAndCall)
	at := time.Date(2026, 5, 2, 18, 45, 10, 0, time.FixedZone("IST", 5*3600+1800))

	out, err := pipeline.AppendCallNote(l, models.CallNote{Notes: "  left voicemail  "}, "agent@brintelli.test", at)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	n := out.CallNotes[0]
	if n.CallDate != "2026-05-02" || n.CallTime != "13:15" {
		t.Errorf("date/time = %s %s, want UTC 2026-05-02 13:15", n.CallDate, n.CallTime)
	}
	if n.Notes != "left voicemail" {
		t.Errorf("notes = %q, want trimmed", n.Notes)
	}
	if n.CreatedBy != "agent@brintelli.test" {
		t.Errorf("createdBy = %q", n.CreatedBy)
	}
}

func TestAppendCallNote_Rejects(t *testing.T) {
	l := leadAt(t, models.StageMeetAndCall)

	tests := []struct {
		name  string
		note  models.CallNote
		field string
	}{
		{"empty", models.CallNote{}, "notes"},
		{"whitespace", models.CallNote{Notes: " \n\t"}, "notes"},
		{"bad date", models.CallNote{Notes: "x", CallDate: "yesterday"}, "callDate"},
		{"bad time", models.CallNote{Notes: "x", CallTime: "25:00"}, "callTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := pipeline.AppendCallNote(l, tt.note, "x", now)
			var ve *pipeline.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("err = %v, want validation error on %s", err, tt.field)
			}
			if len(out.CallNotes) != 0 {
				t.Error("rejected note must not be appended")
			}
		})
	}

	l.Deactivation = &models.Deactivation{Reason: "r", By: "x", At: now}
	if _, err := pipeline.AppendCallNote(l, models.CallNote{Notes: "x"}, "x", now); !errors.Is(err, pipeline.ErrDeactivated) {
		t.Errorf("deactivated: err = %v, want ErrDeactivated", err)
	}
}

func TestCallNotesForDisplay(t *testing.T) {
	stored := []models.CallNote{
		{Notes: "a", CallDate: "2026-03-01", CallTime: "09:00"},
		{Notes: "b", CallDate: "2026-03-05", CallTime: "08:00"},
		{Notes: "c", CallDate: "2026-03-05", CallTime: "17:30"},
		{Notes: "d", CallDate: "2026-03-01", CallTime: "09:00"},
		{Notes: "e", CallDate: "2026-02-28", CallTime: "23:59"},
	}

	got := pipeline.CallNotesForDisplay(stored)

	want := []string{"c", "b", "d", "a", "e"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Notes != w {
			t.Errorf("position %d = %q, want %q", i, got[i].Notes, w)
		}
	}
	if stored[0].Notes != "a" || stored[4].Notes != "e" {
		t.Error("storage order must not change")
	}
}

func TestCallNotesForDisplay_SingleDigitHour(t *testing.T) {
	l := leadAt(t, models.StageMeetAndCall)
	var err error
	for _, n := range []models.CallNote{
		{Notes: "early", CallDate: "2026-03-04", CallTime: "9:05"},
		{Notes: "late", CallDate: "2026-03-04", CallTime: "10:00"},
	} {
		if l, err = pipeline.AppendCallNote(l, n, "agent@brintelli.test", now); err != nil {
			t.Fatalf("append %q: %v", n.Notes, err)
		}
	}

	if got := l.CallNotes[0].CallTime; got != "09:05" {
		t.Errorf("stored time = %q, want zero-padded 09:05", got)
	}
	shown := pipeline.CallNotesForDisplay(l.CallNotes)
	if shown[0].Notes != "late" || shown[1].Notes != "early" {
		t.Errorf("display order = %q, %q; want late, early", shown[0].Notes, shown[1].Notes)
	}
}

func TestCallNotesForDisplay_Empty(t *testing.T) {
	if got := pipeline.CallNotesForDisplay(nil); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
