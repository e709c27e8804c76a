// Package store defines the Event Store collaborator contract: the raw
// joined row shape a backend returns and the normalizer that converts it
// into the canonical event model.
package store

import "context"

type (
	RawCategory struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Hidden bool   `json:"hidden"`
	}

	RawLocation struct {
		LocationID     int64  `json:"locationId"`
		Name           string `json:"name"`
		PreciseAddress string `json:"preciseAddress"`
	}

	RawMeasurement struct {
		MeasurementID int64  `json:"measurementId"`
		Name          string `json:"name"`
	}

	RawPerson struct {
		PersonID int64  `json:"personId"`
		Name     string `json:"name"`
	}

	// RawAttendee wraps a person row the way join tables return them.
	RawAttendee struct {
		Person *RawPerson `json:"people"`
	}

	// RawEventRow is one joined event row as returned by a backend.
	// Sub-objects are nil when the event carries no such link.
	RawEventRow struct {
		EventID     int64           `json:"eventId"`
		Date        string          `json:"date"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Amount      *float64        `json:"amount"`
		WithPartner bool            `json:"withPartner"`
		Positive    *bool           `json:"positive"`
		Category    *RawCategory    `json:"category"`
		Location    *RawLocation    `json:"location"`
		Measurement *RawMeasurement `json:"measurement"`
		Attendees   []RawAttendee   `json:"eventPeople"`
	}
)

// Dimension selects the drill-down axis for FetchEventsForKeys.
type Dimension string

const (
	DimCategory Dimension = "category"
	DimLocation Dimension = "location"
	DimPerson   Dimension = "person"
	DimDay      Dimension = "day"
)

// Filter narrows FetchEvents server-side with a simple equality predicate.
type Filter struct {
	// ExcludeHiddenCategories drops events whose category is flagged
	// hidden. Uncategorized events are kept either way: they still feed
	// the location and person aggregates.
	ExcludeHiddenCategories bool
}

// EventSource is the single outbound port of the aggregation core. Rows
// come back ordered ascending by date; retry policy belongs to the
// implementation, callers never retry.
type EventSource interface {
	FetchEvents(ctx context.Context, f Filter) ([]RawEventRow, error)

	// FetchEventsForKeys returns only the rows matching the given keys on
	// the given dimension, as an optional alternative to client-side
	// refiltering during drill-down. Day keys use the 2006-01-02 format;
	// the other dimensions use decimal ids.
	FetchEventsForKeys(ctx context.Context, dim Dimension, keys []string) ([]RawEventRow, error)
}
