package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Metric keys accepted by Sort. Each view row type supports the subset of
// keys matching its accumulators.
const (
	MetricEvents = "events"
	MetricVisits = "visits"
	MetricSpend  = "spend"
)

var ErrUnknownMetric = errors.New("unknown metric key")

// Row is an aggregate view row that the sort & filter layer can reorder by
// a named accumulator and match by display name.
type Row interface {
	DisplayName() string
	MetricValue(key string) (float64, bool)
}

// Sort returns a copy of rows ordered descending by the named metric.
// Stable: rows with equal values keep their relative order, so sorting is
// idempotent. The input slice is left untouched. The key is validated
// against the row type itself, so an unknown metric fails on an empty view
// the same way it fails on a populated one.
func Sort[R Row](rows []R, key string) ([]R, error) {
	var zero R
	if _, ok := zero.MetricValue(key); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, key)
	}

	out := append([]R(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].MetricValue(key)
		b, _ := out[j].MetricValue(key)
		return a > b
	})
	return out, nil
}

// Filter returns the rows whose display name contains substr, matched
// case-insensitively, preserving relative order. An empty substr returns
// every row. Filter only removes rows and Sort never changes membership,
// so the two compose in either order.
func Filter[R Row](rows []R, substr string) []R {
	if substr == "" {
		return append([]R(nil), rows...)
	}

	needle := strings.ToLower(substr)
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.DisplayName()), needle) {
			out = append(out, r)
		}
	}
	return out
}

func (s CategoryStat) DisplayName() string { return s.Name }

func (s CategoryStat) MetricValue(key string) (float64, bool) {
	if key == MetricEvents {
		return float64(s.EventCount), true
	}
	return 0, false
}

func (s PersonStat) DisplayName() string { return s.Name }

func (s PersonStat) MetricValue(key string) (float64, bool) {
	if key == MetricEvents {
		return float64(s.EventCount), true
	}
	return 0, false
}

func (s LocationStat) DisplayName() string { return s.Name }

func (s LocationStat) MetricValue(key string) (float64, bool) {
	switch key {
	case MetricVisits:
		return float64(s.VisitCount), true
	case MetricSpend:
		return s.TotalSpent, true
	}
	return 0, false
}

func (s DayStat) DisplayName() string { return s.Day }

func (s DayStat) MetricValue(key string) (float64, bool) {
	switch key {
	case MetricEvents:
		return float64(s.EventCount), true
	case MetricSpend:
		return s.TotalSpent, true
	}
	return 0, false
}
