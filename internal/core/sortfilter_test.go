package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func locationRows() []LocationStat {
	return []LocationStat{
		{LocationID: 1, Name: "Trattoria da Gino", VisitCount: 2, TotalSpent: 40},
		{LocationID: 2, Name: "Parco Nord", VisitCount: 5, TotalSpent: 0},
		{LocationID: 3, Name: "Cinema Astra", VisitCount: 2, TotalSpent: 18},
	}
}

func TestSortByMetric(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantIDs []int64
	}{
		// Ties on visits keep input order: Trattoria before Cinema.
		{"by visits", MetricVisits, []int64{2, 1, 3}},
		{"by spend", MetricSpend, []int64{1, 3, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sort(locationRows(), tt.key)
			if err != nil {
				t.Fatalf("Sort() error = %v", err)
			}

			ids := make([]int64, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.LocationID)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("Sort(%q) order mismatch (-want +got):\n%s", tt.key, diff)
			}
		})
	}
}

func TestSortUnknownMetric(t *testing.T) {
	if _, err := Sort(locationRows(), "calories"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("Sort() error = %v, want ErrUnknownMetric", err)
	}

	// Category rows only carry an event count.
	rows := []CategoryStat{{CategoryID: 1, Name: "Food", EventCount: 3}}
	if _, err := Sort(rows, MetricSpend); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("Sort() error = %v, want ErrUnknownMetric", err)
	}
}

func TestSortEmptyInput(t *testing.T) {
	got, err := Sort([]DayStat{}, MetricSpend)
	if err != nil {
		t.Fatalf("Sort() on empty input error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Sort() on empty input = %v, want empty", got)
	}

	// An unknown key is rejected regardless of how many rows there are.
	if _, err := Sort([]DayStat{}, "calories"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("Sort() on empty input with unknown key = %v, want ErrUnknownMetric", err)
	}
}

// Sorting an already-sorted list must not reshuffle it.
func TestSortIsIdempotent(t *testing.T) {
	once, err := Sort(locationRows(), MetricVisits)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	twice, err := Sort(once, MetricVisits)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("double sort changed order (-once +twice):\n%s", diff)
	}
}

func TestSortLeavesInputUntouched(t *testing.T) {
	rows := locationRows()
	if _, err := Sort(rows, MetricSpend); err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	if diff := cmp.Diff(locationRows(), rows); diff != "" {
		t.Errorf("Sort() mutated its input (-want +got):\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name    string
		substr  string
		wantIDs []int64
	}{
		{"empty substring keeps all", "", []int64{1, 2, 3}},
		{"case-insensitive match", "PARCO", []int64{2}},
		{"substring anywhere", "a", []int64{1, 2, 3}},
		{"no match", "zzz", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(locationRows(), tt.substr)

			ids := make([]int64, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.LocationID)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tt.substr, diff)
			}
		})
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	once := Filter(locationRows(), "o")
	twice := Filter(once, "o")
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("double filter changed result (-once +twice):\n%s", diff)
	}
}

// Sort and filter commute: filter never reorders and sort never changes
// membership.
func TestSortFilterCommute(t *testing.T) {
	rows := locationRows()

	sorted, err := Sort(rows, MetricSpend)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	sortThenFilter := Filter(sorted, "a")

	filtered := Filter(rows, "a")
	filterThenSort, err := Sort(filtered, MetricSpend)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}

	if diff := cmp.Diff(sortThenFilter, filterThenSort); diff != "" {
		t.Errorf("sort/filter order matters (-sortFirst +filterFirst):\n%s", diff)
	}
}

func TestDayRowMetrics(t *testing.T) {
	row := DayStat{Day: "2025-03-14", EventCount: 2, TotalSpent: 31.5}

	if got := row.DisplayName(); got != "2025-03-14" {
		t.Errorf("DisplayName() = %q, want day key", got)
	}
	if v, ok := row.MetricValue(MetricEvents); !ok || v != 2 {
		t.Errorf("MetricValue(events) = %v, %v", v, ok)
	}
	if v, ok := row.MetricValue(MetricSpend); !ok || v != 31.5 {
		t.Errorf("MetricValue(spend) = %v, %v", v, ok)
	}
	if _, ok := row.MetricValue(MetricVisits); ok {
		t.Error("MetricValue(visits) should be unsupported for day rows")
	}
}
