// Package memory provides an in-memory EventSource used by tests and as
// the default development backend.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"lifelog/internal/store"
)

type Store struct {
	mu   sync.Mutex
	rows []store.RawEventRow
	err  error
}

func New(rows ...store.RawEventRow) *Store {
	s := &Store{}
	s.Add(rows...)
	return s
}

// Add appends raw rows to the store.
func (s *Store) Add(rows ...store.RawEventRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
}

// FailWith makes every subsequent fetch return err until reset with nil.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// FetchEvents implements store.EventSource.
func (s *Store) FetchEvents(_ context.Context, f store.Filter) ([]store.RawEventRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	out := make([]store.RawEventRow, 0, len(s.rows))
	for _, row := range s.rows {
		if f.ExcludeHiddenCategories && row.Category != nil && row.Category.Hidden {
			continue
		}
		out = append(out, row)
	}
	sortByDate(out)
	return out, nil
}

// FetchEventsForKeys implements store.EventSource.
func (s *Store) FetchEventsForKeys(_ context.Context, dim store.Dimension, keys []string) ([]store.RawEventRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	wanted := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}

	out := make([]store.RawEventRow, 0)
	for _, row := range s.rows {
		if matches(row, dim, wanted) {
			out = append(out, row)
		}
	}
	sortByDate(out)
	return out, nil
}

func matches(row store.RawEventRow, dim store.Dimension, keys map[string]struct{}) bool {
	has := func(id int64) bool {
		_, ok := keys[strconv.FormatInt(id, 10)]
		return ok
	}

	switch dim {
	case store.DimCategory:
		return row.Category != nil && has(row.Category.ID)
	case store.DimLocation:
		return row.Location != nil && has(row.Location.LocationID)
	case store.DimPerson:
		for _, a := range row.Attendees {
			if a.Person != nil && has(a.Person.PersonID) {
				return true
			}
		}
		return false
	case store.DimDay:
		for day := range keys {
			if strings.HasPrefix(row.Date, day) {
				return true
			}
		}
		return false
	}
	return false
}

// Raw dates are ISO-8601, so lexicographic order is chronological.
func sortByDate(rows []store.RawEventRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date < rows[j].Date
	})
}
