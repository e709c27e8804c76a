package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"lifelog/internal/amqp"
	"lifelog/internal/cache"
	"lifelog/internal/core"
	"lifelog/internal/store"
)

// View names one of the four aggregate views.
type View string

const (
	ViewCategory View = "categories"
	ViewPerson   View = "people"
	ViewLocation View = "locations"
	ViewDay      View = "days"
)

var (
	ErrUnknownView = errors.New("unknown view")
	ErrBadKey      = errors.New("bad selection key")
)

// Snapshot is one atomically-applied result of fetch, normalize and
// aggregate. Everything in it is read-only once applied.
type Snapshot struct {
	Events     []core.Event
	Categories []core.CategoryStat
	People     []core.PersonStat
	Locations  []core.LocationStat
	Days       []core.DayStat
	Skipped    int
	FetchedAt  time.Time
}

// SummaryConfig holds the tunables of the summary service.
type SummaryConfig struct {
	// CurrencyUnitID is the measurement unit whose amounts count as spend.
	CurrencyUnitID int64

	// Drill-down subset cache bounds.
	SubsetCacheSize int
	SubsetCacheTTL  time.Duration
}

// DefaultSummaryConfig returns sensible defaults.
func DefaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		CurrencyUnitID:  1,
		SubsetCacheSize: 200,
		SubsetCacheTTL:  5 * time.Minute,
	}
}

// SummaryService owns the applied snapshot, the per-view selections and the
// drill-down cache. All aggregation is synchronous pure computation; the
// only suspension point is the fetch at the store boundary.
type SummaryService struct {
	source store.EventSource
	bus    *amqp.Client
	cfg    SummaryConfig

	group  singleflight.Group
	reqGen atomic.Int64

	mu         sync.RWMutex
	snap       *Snapshot
	appliedGen int64

	selCategory core.Selection[int64]
	selPerson   core.Selection[int64]
	selLocation core.Selection[int64]
	selDay      core.Selection[string]

	subsets *cache.LRU[[]core.Event]
}

// NewSummaryService wires a summary service to its event source. bus may be
// nil; change notifications are then local-only.
func NewSummaryService(source store.EventSource, bus *amqp.Client, cfg SummaryConfig) *SummaryService {
	return &SummaryService{
		source:  source,
		bus:     bus,
		cfg:     cfg,
		snap:    &Snapshot{},
		subsets: cache.New[[]core.Event](cfg.SubsetCacheSize, cfg.SubsetCacheTTL),
	}
}

// Refresh fetches the full event set and replaces the applied snapshot.
// Rapid repeated triggers are coalesced into one fetch; a result computed
// for an older request never overwrites a snapshot applied by a newer one
// (last-write-by-request-time-wins). On fetch error the previous snapshot
// stays visible: stale views beat no views.
func (s *SummaryService) Refresh(ctx context.Context) error {
	gen := s.reqGen.Add(1)

	v, err, shared := s.group.Do("refresh", func() (any, error) {
		return s.buildSnapshot(ctx)
	})
	if err != nil {
		return fmt.Errorf("refresh events: %w", err)
	}

	snap := v.(*Snapshot)
	if s.apply(snap, gen) {
		slog.InfoContext(ctx, "Applied event snapshot",
			"events", len(snap.Events),
			"skipped", snap.Skipped,
			"shared_fetch", shared)
	}
	return nil
}

func (s *SummaryService) buildSnapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := s.source.FetchEvents(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}

	events, skipped := store.NormalizeAll(rows)
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped malformed records during refresh", "skipped", skipped)
	}

	return &Snapshot{
		Events:     events,
		Categories: core.AggregateByCategory(events),
		People:     core.AggregateByPerson(events),
		Locations:  core.AggregateByLocation(events, s.cfg.CurrencyUnitID),
		Days:       core.AggregateByDay(events, s.cfg.CurrencyUnitID),
		Skipped:    skipped,
		FetchedAt:  time.Now(),
	}, nil
}

// apply swaps in the snapshot unless a newer request already applied one.
// Selections reset and cached subsets drop with every applied refetch.
func (s *SummaryService) apply(snap *Snapshot, gen int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen <= s.appliedGen {
		return false
	}
	s.snap = snap
	s.appliedGen = gen

	s.selCategory.Reset()
	s.selPerson.Reset()
	s.selLocation.Reset()
	s.selDay.Reset()
	s.subsets.Purge()
	return true
}

// NotifyChanged publishes a change message for other instances. Publish
// failures degrade to local-only refresh, they never fail the write.
func (s *SummaryService) NotifyChanged(ctx context.Context, eventID int64, op string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishEventChanged(ctx, eventID, op); err != nil {
		slog.WarnContext(ctx, "Failed to publish event change",
			"event_id", eventID, "op", op, "error", err)
	}
}

// Overview returns the headline totals of the applied snapshot.
func (s *SummaryService) Overview() core.OverviewStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.ComputeOverview(s.snap.Events, s.cfg.CurrencyUnitID)
}

// HomeFeed returns the visible events, most recent first.
func (s *SummaryService) HomeFeed() []core.Event {
	s.mu.RLock()
	events := s.snap.Events
	s.mu.RUnlock()
	return core.VisibleEvents(events)
}

// SkippedRecords reports how many raw rows the last refresh dropped.
func (s *SummaryService) SkippedRecords() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Skipped
}

// LastRefreshed reports when the applied snapshot was fetched. Zero before
// the first successful refresh.
func (s *SummaryService) LastRefreshed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.FetchedAt
}

// CategoryView returns category rows, optionally re-sorted by metric key
// and filtered by a case-insensitive name substring.
func (s *SummaryService) CategoryView(sortKey, nameFilter string) ([]core.CategoryStat, error) {
	s.mu.RLock()
	rows := s.snap.Categories
	s.mu.RUnlock()
	return viewRows(rows, sortKey, nameFilter)
}

// PersonView returns person rows with optional sort and filter.
func (s *SummaryService) PersonView(sortKey, nameFilter string) ([]core.PersonStat, error) {
	s.mu.RLock()
	rows := s.snap.People
	s.mu.RUnlock()
	return viewRows(rows, sortKey, nameFilter)
}

// LocationView returns location rows with optional sort and filter.
func (s *SummaryService) LocationView(sortKey, nameFilter string) ([]core.LocationStat, error) {
	s.mu.RLock()
	rows := s.snap.Locations
	s.mu.RUnlock()
	return viewRows(rows, sortKey, nameFilter)
}

// DayView returns day rows with optional sort and filter.
func (s *SummaryService) DayView(sortKey, nameFilter string) ([]core.DayStat, error) {
	s.mu.RLock()
	rows := s.snap.Days
	s.mu.RUnlock()
	return viewRows(rows, sortKey, nameFilter)
}

func viewRows[R core.Row](rows []R, sortKey, nameFilter string) ([]R, error) {
	var err error
	if sortKey != "" {
		rows, err = core.Sort(rows, sortKey)
		if err != nil {
			return nil, err
		}
	}
	return core.Filter(rows, nameFilter), nil
}

// SelectionResult reports the outcome of a click on an aggregate row.
type SelectionResult struct {
	Selected bool
	Events   []core.Event
}

// Select drives the view's selection state machine with a click on key and
// returns the contributing event subset when the key ends up selected.
// Views are independent: selecting here never touches the other three.
func (s *SummaryService) Select(view View, key string) (SelectionResult, error) {
	selected, err := s.click(view, key)
	if err != nil {
		return SelectionResult{}, err
	}
	if !selected {
		return SelectionResult{}, nil
	}
	return SelectionResult{Selected: true, Events: s.subset(view, key)}, nil
}

// CurrentSelection returns the selected key of a view, if any.
func (s *SummaryService) CurrentSelection(view View) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch view {
	case ViewCategory:
		if id, ok := s.selCategory.Current(); ok {
			return strconv.FormatInt(id, 10), true, nil
		}
	case ViewPerson:
		if id, ok := s.selPerson.Current(); ok {
			return strconv.FormatInt(id, 10), true, nil
		}
	case ViewLocation:
		if id, ok := s.selLocation.Current(); ok {
			return strconv.FormatInt(id, 10), true, nil
		}
	case ViewDay:
		if day, ok := s.selDay.Current(); ok {
			return day, true, nil
		}
	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}
	return "", false, nil
}

func (s *SummaryService) click(view View, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch view {
	case ViewDay:
		return s.selDay.Click(key), nil
	case ViewCategory, ViewPerson, ViewLocation:
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return false, fmt.Errorf("%w: %q", ErrBadKey, key)
		}
		switch view {
		case ViewCategory:
			return s.selCategory.Click(id), nil
		case ViewPerson:
			return s.selPerson.Click(id), nil
		default:
			return s.selLocation.Click(id), nil
		}
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}
}

// subset derives the events behind one aggregate row, memoized until the
// next applied snapshot. Cache keys carry the generation the snapshot was
// read under: an insert racing with apply lands under a key no later read
// uses, so a purged cache can never be repopulated with stale events.
func (s *SummaryService) subset(view View, key string) []core.Event {
	s.mu.RLock()
	events := s.snap.Events
	gen := s.appliedGen
	s.mu.RUnlock()

	cacheKey := fmt.Sprintf("%d:%s:%s", gen, view, key)
	if cached, ok := s.subsets.Get(cacheKey); ok {
		return cached
	}

	var out []core.Event
	switch view {
	case ViewCategory:
		id, _ := strconv.ParseInt(key, 10, 64)
		out = core.EventsForCategory(events, id)
	case ViewPerson:
		id, _ := strconv.ParseInt(key, 10, 64)
		out = core.EventsForPerson(events, id)
	case ViewLocation:
		id, _ := strconv.ParseInt(key, 10, 64)
		out = core.EventsForLocation(events, id)
	case ViewDay:
		out = core.EventsForDay(events, key)
	}

	s.subsets.Set(cacheKey, out)
	return out
}
