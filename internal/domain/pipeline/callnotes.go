package pipeline

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/domain/models"
)

// ValidateCallNote checks a call note before it is stored. Notes must hold
// non-whitespace text; date and time are optional but must parse when given.
func ValidateCallNote(n models.CallNote) error {
	if strings.TrimSpace(n.Notes) == "" {
		return invalid("notes", "call notes cannot be empty")
	}
	if d := strings.TrimSpace(n.CallDate); d != "" && !validDate(d) {
		return invalid("callDate", "must be YYYY-MM-DD")
	}
	if c := strings.TrimSpace(n.CallTime); c != "" && !validClock(c) {
		return invalid("callTime", "must be HH:MM")
	}
	return nil
}

// AppendCallNote returns l with note added to the end of its call log.
// Existing entries are copied, never modified. Missing call date/time
// default to now (UTC).
func AppendCallNote(l models.Lead, note models.CallNote, actor string, now time.Time) (models.Lead, error) {
	note, err := prepareCallNote(note, actor, now)
	if err != nil {
		return l, err
	}
	if l.IsDeactivated() {
		return l, deactivatedGuard(ActionAddCallNote, l)
	}
	l = appendNote(l, note)
	return touch(l, now), nil
}

// CallNotesForDisplay returns a copy of notes ordered by call date and time,
// most recent first. Stored times are zero-padded HH:MM, so string order is
// chronological. Notes with the same date and time keep the later
// insertion first.
func CallNotesForDisplay(notes []models.CallNote) []models.CallNote {
	out := make([]models.CallNote, len(notes))
	for i, n := range notes {
		out[len(notes)-1-i] = n
	}
	slices.SortStableFunc(out, func(a, b models.CallNote) int {
		if c := cmp.Compare(b.CallDate, a.CallDate); c != 0 {
			return c
		}
		return cmp.Compare(b.CallTime, a.CallTime)
	})
	return out
}

func prepareCallNote(n models.CallNote, actor string, now time.Time) (models.CallNote, error) {
	if err := ValidateCallNote(n); err != nil {
		return n, err
	}
	at := now.UTC()
	n.Notes = strings.TrimSpace(n.Notes)
	n.CallDate = strings.TrimSpace(n.CallDate)
	n.CallTime = strings.TrimSpace(n.CallTime)
	if n.CallDate == "" {
		n.CallDate = at.Format("2006-01-02")
	}
	if n.CallTime == "" {
		n.CallTime = at.Format("15:04")
	} else {
		n.CallTime = normalizeClock(n.CallTime)
	}
	n.CreatedBy = actor
	n.CreatedAt = at
	return n, nil
}

func appendNote(l models.Lead, n models.CallNote) models.Lead {
	notes := make([]models.CallNote, len(l.CallNotes), len(l.CallNotes)+1)
	copy(notes, l.CallNotes)
	l.CallNotes = append(notes, n)
	return l
}
