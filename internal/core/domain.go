package core

import (
	"errors"
	"strings"
	"time"
)

const dayFormat = "2006-01-02"

type (
	// Person is one attendee of an event.
	Person struct {
		PersonID int64
		Name     string
	}

	// Event is the canonical in-memory representation of one logged
	// occurrence. Optional fields use pointers: a nil Amount means "no
	// quantity recorded", distinct from a recorded 0; a nil Positive means
	// "no experience rating given", distinct from a negative rating.
	// Events are read-only after normalization.
	Event struct {
		EventID     int64
		Date        time.Time
		Title       string
		Description string

		Amount          *float64
		MeasurementID   *int64
		MeasurementName string

		CategoryID     *int64
		CategoryName   string
		CategoryHidden bool

		LocationID   *int64
		LocationName string

		WithPartner bool
		Positive    *bool

		Attendees []Person
	}
)

var (
	ErrMissingEventID = errors.New("missing event id")
	ErrMissingDate    = errors.New("missing event date")
	ErrEmptyTitle     = errors.New("empty title")
	ErrNegativeAmount = errors.New("amount cannot be negative")
)

func (e Event) Validate() error {
	if e.EventID == 0 {
		return ErrMissingEventID
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if e.Amount != nil && *e.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// DayKey returns the calendar-day bucket of the event in the fixed display
// format used by the day aggregate.
func (e Event) DayKey() string {
	return e.Date.Format(dayFormat)
}

// HasVisibleCategory reports whether the event's category is present and
// not flagged hidden. Hidden and uncategorized events are excluded from the
// home feed and the category aggregate only; the location and person
// aggregates still count them.
func (e Event) HasVisibleCategory() bool {
	return e.CategoryID != nil && !e.CategoryHidden
}

// AmountIn returns the recorded amount when it is denominated in the given
// measurement unit, else 0. A missing amount counts as 0, never as a skip.
func (e Event) AmountIn(unitID int64) float64 {
	if e.Amount == nil || e.MeasurementID == nil || *e.MeasurementID != unitID {
		return 0
	}
	return *e.Amount
}

// ExperienceLabel maps the tri-state rating to a display label. An unrated
// event must stay distinguishable from a bad experience.
func (e Event) ExperienceLabel() string {
	switch {
	case e.Positive == nil:
		return "unrated"
	case *e.Positive:
		return "good"
	default:
		return "bad"
	}
}
