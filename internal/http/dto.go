package http

import (
	"time"

	"lifelog/internal/core"
)

// Wire shapes for the JSON API. Optional fields stay pointers so the
// client can tell "no amount" from zero and "unrated" from "bad".

type personDTO struct {
	PersonID int64  `json:"personId"`
	Name     string `json:"name"`
}

type eventDTO struct {
	EventID       int64       `json:"eventId"`
	Date          string      `json:"date"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	Amount        *float64    `json:"amount"`
	MeasurementID *int64      `json:"measurementUnitId,omitempty"`
	Measurement   string      `json:"measurement,omitempty"`
	CategoryID    *int64      `json:"categoryId,omitempty"`
	Category      string      `json:"category,omitempty"`
	LocationID    *int64      `json:"locationId,omitempty"`
	Location      string      `json:"location,omitempty"`
	WithPartner   bool        `json:"withPartner"`
	Positive      *bool       `json:"positive"`
	Experience    string      `json:"experience"`
	Attendees     []personDTO `json:"attendees"`
}

func toEventDTO(e core.Event) eventDTO {
	attendees := make([]personDTO, 0, len(e.Attendees))
	for _, p := range e.Attendees {
		attendees = append(attendees, personDTO{PersonID: p.PersonID, Name: p.Name})
	}
	return eventDTO{
		EventID:       e.EventID,
		Date:          e.Date.Format(time.RFC3339),
		Title:         e.Title,
		Description:   e.Description,
		Amount:        e.Amount,
		MeasurementID: e.MeasurementID,
		Measurement:   e.MeasurementName,
		CategoryID:    e.CategoryID,
		Category:      e.CategoryName,
		LocationID:    e.LocationID,
		Location:      e.LocationName,
		WithPartner:   e.WithPartner,
		Positive:      e.Positive,
		Experience:    e.ExperienceLabel(),
		Attendees:     attendees,
	}
}

func toEventDTOs(events []core.Event) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toEventDTO(e))
	}
	return out
}

type categoryRowDTO struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
	EventCount int64  `json:"eventCount"`
}

type personRowDTO struct {
	PersonID   int64  `json:"personId"`
	Name       string `json:"name"`
	EventCount int64  `json:"eventCount"`
}

type locationRowDTO struct {
	LocationID int64   `json:"locationId"`
	Name       string  `json:"name"`
	VisitCount int64   `json:"visitCount"`
	TotalSpent float64 `json:"totalSpent"`
}

type dayRowDTO struct {
	Day        string  `json:"day"`
	EventCount int64   `json:"eventCount"`
	TotalSpent float64 `json:"totalSpent"`
}

type overviewDTO struct {
	EventCount     int64     `json:"eventCount"`
	PeopleMet      int64     `json:"peopleMet"`
	PlacesVisited  int64     `json:"placesVisited"`
	TotalSpent     float64   `json:"totalSpent"`
	SkippedRecords int       `json:"skippedRecords"`
	LastRefreshed  time.Time `json:"lastRefreshed"`
}
