package store

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lifelog/internal/core"
)

// ErrMalformedRecord marks a raw row that cannot be normalized. Callers
// skip the offending record and continue the batch.
var ErrMalformedRecord = errors.New("malformed event record")

// Accepted raw date encodings, tried in order.
var dateFormats = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Normalize maps one raw joined row into a canonical event. Pure mapping,
// no side effects: nil sub-objects become absent optional fields and the
// attendee wrapper list flattens to plain persons. It fails only on
// malformed input — a missing event id or a missing/unparseable date.
func Normalize(row RawEventRow) (core.Event, error) {
	if row.EventID == 0 {
		return core.Event{}, fmt.Errorf("%w: missing eventId", ErrMalformedRecord)
	}
	date, err := parseDate(row.Date)
	if err != nil {
		return core.Event{}, fmt.Errorf("%w: event %d: %v", ErrMalformedRecord, row.EventID, err)
	}

	e := core.Event{
		EventID:     row.EventID,
		Date:        date,
		Title:       row.Title,
		Description: row.Description,
		Amount:      row.Amount,
		WithPartner: row.WithPartner,
		Positive:    row.Positive,
	}

	if c := row.Category; c != nil {
		id := c.ID
		e.CategoryID = &id
		e.CategoryName = c.Name
		e.CategoryHidden = c.Hidden
	}
	if l := row.Location; l != nil {
		id := l.LocationID
		e.LocationID = &id
		e.LocationName = l.Name
	}
	if m := row.Measurement; m != nil {
		id := m.MeasurementID
		e.MeasurementID = &id
		e.MeasurementName = m.Name
	}
	for _, a := range row.Attendees {
		if a.Person == nil {
			continue
		}
		e.Attendees = append(e.Attendees, core.Person{
			PersonID: a.Person.PersonID,
			Name:     a.Person.Name,
		})
	}

	return e, nil
}

// NormalizeAll converts a whole batch, skipping malformed rows instead of
// aborting. It returns the canonical events plus the number of records
// skipped, so callers can surface the count.
func NormalizeAll(rows []RawEventRow) ([]core.Event, int) {
	events := make([]core.Event, 0, len(rows))
	skipped := 0

	for _, row := range rows {
		e, err := Normalize(row)
		if err != nil {
			skipped++
			slog.Warn("Skipping malformed event record",
				"event_id", row.EventID,
				"error", err)
			continue
		}
		events = append(events, e)
	}
	return events, skipped
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing date")
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
