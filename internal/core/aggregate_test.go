package core

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const currencyUnit = int64(1)

func day(d string) time.Time {
	t, err := time.Parse("2006-01-02", d)
	if err != nil {
		panic(err)
	}
	return t
}

// sampleEvents covers the interesting shapes: shared locations, hidden
// categories, multi-attendee events, and non-currency amounts.
func sampleEvents() []Event {
	return []Event{
		{
			EventID: 1, Date: day("2025-03-10"), Title: "Dinner",
			Amount: ptr(10.0), MeasurementID: ptr(currencyUnit),
			CategoryID: ptr(int64(1)), CategoryName: "Food",
			LocationID: ptr(int64(5)), LocationName: "Trattoria",
			Attendees: []Person{{PersonID: 1, Name: "Anna"}},
		},
		{
			EventID: 2, Date: day("2025-03-11"), Title: "Coffee",
			CategoryID: ptr(int64(1)), CategoryName: "Food",
			LocationID: ptr(int64(5)), LocationName: "Trattoria",
			Attendees:  []Person{{PersonID: 1, Name: "Anna"}, {PersonID: 2, Name: "Marco"}},
		},
		{
			EventID: 3, Date: day("2025-03-12"), Title: "Run",
			Amount: ptr(7.2), MeasurementID: ptr(int64(2)),
			CategoryID: ptr(int64(2)), CategoryName: "Sport",
			LocationID: ptr(int64(6)), LocationName: "Park",
		},
		{
			EventID: 4, Date: day("2025-03-12"), Title: "Dentist",
			Amount: ptr(90.0), MeasurementID: ptr(currencyUnit),
			CategoryID: ptr(int64(3)), CategoryName: "Health", CategoryHidden: true,
		},
	}
}

func TestAggregateByCategory(t *testing.T) {
	got := AggregateByCategory(sampleEvents())

	want := []CategoryStat{
		{CategoryID: 1, Name: "Food", EventCount: 2},
		{CategoryID: 2, Name: "Sport", EventCount: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AggregateByCategory() mismatch (-want +got):\n%s", diff)
	}
}

// Counts across category rows must add up to the number of events with a
// visible category: every such event lands in exactly one row.
func TestCategoryCountsSumToVisibleEvents(t *testing.T) {
	events := sampleEvents()

	var visible int64
	for _, e := range events {
		if e.HasVisibleCategory() {
			visible++
		}
	}

	var sum int64
	for _, row := range AggregateByCategory(events) {
		sum += row.EventCount
	}
	if sum != visible {
		t.Errorf("category counts sum to %d, want %d", sum, visible)
	}
}

func TestAggregateByPerson(t *testing.T) {
	got := AggregateByPerson(sampleEvents())

	want := []PersonStat{
		{PersonID: 1, Name: "Anna", EventCount: 2},
		{PersonID: 2, Name: "Marco", EventCount: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AggregateByPerson() mismatch (-want +got):\n%s", diff)
	}
}

// Counts across person rows must add up to the total number of attendee
// entries: an event with three attendees contributes three.
func TestPersonCountsSumToAttendeeEntries(t *testing.T) {
	events := sampleEvents()

	var entries int64
	for _, e := range events {
		entries += int64(len(e.Attendees))
	}

	var sum int64
	for _, row := range AggregateByPerson(events) {
		sum += row.EventCount
	}
	if sum != entries {
		t.Errorf("person counts sum to %d, want %d", sum, entries)
	}
}

func TestAggregateByLocation(t *testing.T) {
	got := AggregateByLocation(sampleEvents(), currencyUnit)

	// Trattoria: two visits, but only event 1 carries a currency amount.
	// Park: one visit, the 7.2 km amount is not spend.
	want := []LocationStat{
		{LocationID: 5, Name: "Trattoria", VisitCount: 2, TotalSpent: 10},
		{LocationID: 6, Name: "Park", VisitCount: 1, TotalSpent: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AggregateByLocation() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateByDay(t *testing.T) {
	got := AggregateByDay(sampleEvents(), currencyUnit)

	// Input is date-ascending, so bucket order is chronological. The hidden
	// category event still counts: visibility only matters to the category
	// view and the home feed.
	want := []DayStat{
		{Day: "2025-03-10", EventCount: 1, TotalSpent: 10},
		{Day: "2025-03-11", EventCount: 1, TotalSpent: 0},
		{Day: "2025-03-12", EventCount: 2, TotalSpent: 90},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AggregateByDay() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregatesOnEmptyInput(t *testing.T) {
	if got := AggregateByCategory(nil); len(got) != 0 {
		t.Errorf("AggregateByCategory(nil) = %v, want empty", got)
	}
	if got := AggregateByPerson(nil); len(got) != 0 {
		t.Errorf("AggregateByPerson(nil) = %v, want empty", got)
	}
	if got := AggregateByLocation(nil, currencyUnit); len(got) != 0 {
		t.Errorf("AggregateByLocation(nil) = %v, want empty", got)
	}
	if got := AggregateByDay(nil, currencyUnit); len(got) != 0 {
		t.Errorf("AggregateByDay(nil) = %v, want empty", got)
	}
}

func TestCategoryTieBreakKeepsEncounterOrder(t *testing.T) {
	events := []Event{
		{EventID: 1, Date: day("2025-01-01"), CategoryID: ptr(int64(7)), CategoryName: "Travel"},
		{EventID: 2, Date: day("2025-01-02"), CategoryID: ptr(int64(8)), CategoryName: "Books"},
	}

	got := AggregateByCategory(events)
	want := []CategoryStat{
		{CategoryID: 7, Name: "Travel", EventCount: 1},
		{CategoryID: 8, Name: "Books", EventCount: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tie-break order mismatch (-want +got):\n%s", diff)
	}
}

func TestVisibleEvents(t *testing.T) {
	got := VisibleEvents(sampleEvents())

	// Hidden category event 4 is dropped; the rest come back most recent
	// first.
	ids := make([]int64, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.EventID)
	}
	want := []int64{3, 2, 1}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("VisibleEvents() order mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeOverview(t *testing.T) {
	got := ComputeOverview(sampleEvents(), currencyUnit)

	// Spend includes the hidden-category dentist visit: overview totals are
	// about the whole log, not the visible slice.
	want := OverviewStats{EventCount: 4, PeopleMet: 2, PlacesVisited: 2, TotalSpent: 100}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ComputeOverview() mismatch (-want +got):\n%s", diff)
	}
}

func TestDrillDownSubsets(t *testing.T) {
	events := sampleEvents()

	tests := []struct {
		name    string
		subset  []Event
		wantIDs []int64
	}{
		{"category", EventsForCategory(events, 1), []int64{2, 1}},
		{"hidden category still reachable", EventsForCategory(events, 3), []int64{4}},
		{"location", EventsForLocation(events, 5), []int64{2, 1}},
		{"person", EventsForPerson(events, 2), []int64{2}},
		{"day", EventsForDay(events, "2025-03-12"), []int64{3, 4}},
		{"no matches", EventsForCategory(events, 99), []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]int64, 0, len(tt.subset))
			for _, e := range tt.subset {
				ids = append(ids, e.EventID)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("subset mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDrillDownDoesNotMutateInput(t *testing.T) {
	events := sampleEvents()
	before := make([]int64, len(events))
	for i, e := range events {
		before[i] = e.EventID
	}

	EventsForLocation(events, 5)
	VisibleEvents(events)

	after := make([]int64, len(events))
	for i, e := range events {
		after[i] = e.EventID
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("input slice mutated (-before +after):\n%s", diff)
	}
}
