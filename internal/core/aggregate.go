package core

import "sort"

// Aggregate row types, one per view. Accumulators are built by a single
// left-to-right fold over the canonical event list.
type (
	CategoryStat struct {
		CategoryID int64
		Name       string
		EventCount int64
	}

	PersonStat struct {
		PersonID   int64
		Name       string
		EventCount int64
	}

	LocationStat struct {
		LocationID int64
		Name       string
		VisitCount int64
		TotalSpent float64
	}

	DayStat struct {
		Day        string
		EventCount int64
		TotalSpent float64
	}
)

// OverviewStats are the headline totals across the whole event list.
type OverviewStats struct {
	EventCount    int64
	PeopleMet     int64
	PlacesVisited int64
	TotalSpent    float64
}

// foldRows groups events by the keys produced by expand, preserving
// first-encounter order of keys. init builds a row the first time its key
// is seen; accum folds every contribution into the existing row. Each
// aggregate view is one pass: O(n) time, O(k) space for k distinct keys.
func foldRows[K comparable, R any](events []Event, expand func(Event) []K, init func(Event, K) R, accum func(R, Event, K) R) []R {
	rows := make([]R, 0)
	index := make(map[K]int)

	for _, e := range events {
		for _, k := range expand(e) {
			i, ok := index[k]
			if !ok {
				i = len(rows)
				index[k] = i
				rows = append(rows, init(e, k))
			}
			rows[i] = accum(rows[i], e, k)
		}
	}
	return rows
}

// AggregateByCategory counts events per category, skipping events whose
// category is absent or hidden. Rows come back ordered descending by event
// count; equal counts keep first-encountered order.
func AggregateByCategory(events []Event) []CategoryStat {
	rows := foldRows(events,
		func(e Event) []int64 {
			if !e.HasVisibleCategory() {
				return nil
			}
			return []int64{*e.CategoryID}
		},
		func(e Event, id int64) CategoryStat {
			return CategoryStat{CategoryID: id, Name: e.CategoryName}
		},
		func(r CategoryStat, _ Event, _ int64) CategoryStat {
			r.EventCount++
			return r
		})

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].EventCount > rows[j].EventCount
	})
	return rows
}

// AggregateByPerson counts, per person, the events they attended. An event
// with three attendees contributes one to each of three rows. Rows come
// back ordered descending by event count, stable on ties.
func AggregateByPerson(events []Event) []PersonStat {
	rows := foldRows(events,
		func(e Event) []int64 {
			ids := make([]int64, 0, len(e.Attendees))
			for _, p := range e.Attendees {
				ids = append(ids, p.PersonID)
			}
			return ids
		},
		func(e Event, id int64) PersonStat {
			return PersonStat{PersonID: id, Name: attendeeName(e, id)}
		},
		func(r PersonStat, _ Event, _ int64) PersonStat {
			r.EventCount++
			return r
		})

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].EventCount > rows[j].EventCount
	})
	return rows
}

func attendeeName(e Event, personID int64) string {
	for _, p := range e.Attendees {
		if p.PersonID == personID {
			return p.Name
		}
	}
	return ""
}

// AggregateByLocation counts visits and sums spend per location. Spend only
// accumulates amounts denominated in currencyUnit; every event with a
// location still counts one visit. Rows keep first-encountered order;
// explicit re-sorting is the caller's choice.
func AggregateByLocation(events []Event, currencyUnit int64) []LocationStat {
	return foldRows(events,
		func(e Event) []int64 {
			if e.LocationID == nil {
				return nil
			}
			return []int64{*e.LocationID}
		},
		func(e Event, id int64) LocationStat {
			return LocationStat{LocationID: id, Name: e.LocationName}
		},
		func(r LocationStat, e Event, _ int64) LocationStat {
			r.VisitCount++
			r.TotalSpent += e.AmountIn(currencyUnit)
			return r
		})
}

// AggregateByDay buckets events by calendar day and sums currency spend per
// day. Rows keep encounter order, which is chronological when the input is
// date-ascending; the engine never re-sorts by date itself.
func AggregateByDay(events []Event, currencyUnit int64) []DayStat {
	return foldRows(events,
		func(e Event) []string {
			return []string{e.DayKey()}
		},
		func(_ Event, day string) DayStat {
			return DayStat{Day: day}
		},
		func(r DayStat, e Event, _ string) DayStat {
			r.EventCount++
			r.TotalSpent += e.AmountIn(currencyUnit)
			return r
		})
}

// VisibleEvents is the home feed: events with a present, non-hidden
// category, most recent first.
func VisibleEvents(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.HasVisibleCategory() {
			out = append(out, e)
		}
	}
	return sortEventsByDateDesc(out)
}

// ComputeOverview derives the headline totals. Spend sums over all events
// regardless of category visibility; people and places are distinct counts.
func ComputeOverview(events []Event, currencyUnit int64) OverviewStats {
	o := OverviewStats{EventCount: int64(len(events))}

	people := make(map[int64]struct{})
	places := make(map[int64]struct{})
	for _, e := range events {
		for _, p := range e.Attendees {
			people[p.PersonID] = struct{}{}
		}
		if e.LocationID != nil {
			places[*e.LocationID] = struct{}{}
		}
		o.TotalSpent += e.AmountIn(currencyUnit)
	}
	o.PeopleMet = int64(len(people))
	o.PlacesVisited = int64(len(places))
	return o
}

// Drill-down subsets: the events contributing to one aggregate row, most
// recent first. For the day view descending order is a documented
// convention rather than a correctness requirement.

func EventsForCategory(events []Event, categoryID int64) []Event {
	return filterEvents(events, func(e Event) bool {
		return e.CategoryID != nil && *e.CategoryID == categoryID
	})
}

func EventsForLocation(events []Event, locationID int64) []Event {
	return filterEvents(events, func(e Event) bool {
		return e.LocationID != nil && *e.LocationID == locationID
	})
}

func EventsForPerson(events []Event, personID int64) []Event {
	return filterEvents(events, func(e Event) bool {
		for _, p := range e.Attendees {
			if p.PersonID == personID {
				return true
			}
		}
		return false
	})
}

func EventsForDay(events []Event, day string) []Event {
	return filterEvents(events, func(e Event) bool {
		return e.DayKey() == day
	})
}

func filterEvents(events []Event, match func(Event) bool) []Event {
	out := make([]Event, 0)
	for _, e := range events {
		if match(e) {
			out = append(out, e)
		}
	}
	return sortEventsByDateDesc(out)
}

func sortEventsByDateDesc(events []Event) []Event {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.After(events[j].Date)
	})
	return events
}
