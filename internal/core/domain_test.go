package core

import (
	"errors"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func validEvent() Event {
	return Event{
		EventID: 1,
		Date:    time.Date(2025, 3, 14, 19, 30, 0, 0, time.UTC),
		Title:   "Dinner",
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr error
	}{
		{
			name:   "valid event",
			mutate: func(e *Event) {},
		},
		{
			name:    "missing id",
			mutate:  func(e *Event) { e.EventID = 0 },
			wantErr: ErrMissingEventID,
		},
		{
			name:    "missing date",
			mutate:  func(e *Event) { e.Date = time.Time{} },
			wantErr: ErrMissingDate,
		},
		{
			name:    "blank title",
			mutate:  func(e *Event) { e.Title = "   " },
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "negative amount",
			mutate:  func(e *Event) { e.Amount = ptr(-1.0) },
			wantErr: ErrNegativeAmount,
		},
		{
			name:   "zero amount is allowed",
			mutate: func(e *Event) { e.Amount = ptr(0.0) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent()
			tt.mutate(&e)

			err := e.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDayKey(t *testing.T) {
	e := Event{Date: time.Date(2025, 3, 14, 23, 59, 59, 0, time.UTC)}
	if got := e.DayKey(); got != "2025-03-14" {
		t.Errorf("DayKey() = %q, want %q", got, "2025-03-14")
	}
}

func TestHasVisibleCategory(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{"visible category", Event{CategoryID: ptr(int64(3))}, true},
		{"hidden category", Event{CategoryID: ptr(int64(3)), CategoryHidden: true}, false},
		{"no category", Event{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.HasVisibleCategory(); got != tt.want {
				t.Errorf("HasVisibleCategory() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAmountIn(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  float64
	}{
		{
			name:  "currency amount",
			event: Event{Amount: ptr(25.0), MeasurementID: ptr(int64(1))},
			want:  25,
		},
		{
			name:  "other unit does not count as spend",
			event: Event{Amount: ptr(7.2), MeasurementID: ptr(int64(2))},
			want:  0,
		},
		{
			name:  "missing amount",
			event: Event{MeasurementID: ptr(int64(1))},
			want:  0,
		},
		{
			name:  "missing unit",
			event: Event{Amount: ptr(25.0)},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.AmountIn(1); got != tt.want {
				t.Errorf("AmountIn(1) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExperienceLabel(t *testing.T) {
	tests := []struct {
		name     string
		positive *bool
		want     string
	}{
		{"unrated", nil, "unrated"},
		{"good", ptr(true), "good"},
		{"bad", ptr(false), "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{Positive: tt.positive}
			if got := e.ExperienceLabel(); got != tt.want {
				t.Errorf("ExperienceLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
