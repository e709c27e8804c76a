package http

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lifelog/internal/amqp"
	"lifelog/internal/core"
	"lifelog/internal/storage"
)

// requireRepo guards the write surface. The memory backend serves reads
// only, so every record route answers 503 there.
func (s *Server) requireRepo(w http.ResponseWriter) bool {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "record writes are disabled for this backend")
		return false
	}
	return true
}

type createEventRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Date          string   `json:"date"`
	Amount        *float64 `json:"amount"`
	MeasurementID *int64   `json:"measurementUnitId"`
	CategoryID    *int64   `json:"categoryId"`
	LocationID    *int64   `json:"locationId"`
	WithPartner   bool     `json:"withPartner"`
	Positive      *bool    `json:"positive"`
	AttendeeIDs   []int64  `json:"attendeeIds"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}

	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var date time.Time
	if req.Date != "" {
		var err error
		date, err = parseEventDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date: "+req.Date)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	id, err := s.repo.CreateEvent(ctx, storage.NewEvent{
		Title:         req.Title,
		Description:   req.Description,
		Date:          date,
		Amount:        req.Amount,
		MeasurementID: req.MeasurementID,
		CategoryID:    req.CategoryID,
		LocationID:    req.LocationID,
		WithPartner:   req.WithPartner,
		Positive:      req.Positive,
		AttendeeIDs:   req.AttendeeIDs,
	})
	if err != nil {
		if errors.Is(err, core.ErrEmptyTitle) || errors.Is(err, core.ErrNegativeAmount) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(ctx, "Failed to create event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	s.afterWrite(ctx, id, amqp.OpCreated)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to delete event", "event_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	s.afterWrite(ctx, id, amqp.OpDeleted)
	w.WriteHeader(http.StatusNoContent)
}

// afterWrite fans a change out to peer instances and refreshes the local
// snapshot. Both steps are best-effort: the write already landed.
func (s *Server) afterWrite(ctx context.Context, eventID int64, op string) {
	s.summary.NotifyChanged(ctx, eventID, op)
	if err := s.summary.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Post-write refresh failed", "event_id", eventID, "error", err)
	}
}

func parseEventDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date layout")
}

// Reference record routes. Each create answers the new id; each list feeds
// the client's pickers.

type createNamedRequest struct {
	Name           string `json:"name"`
	Hidden         bool   `json:"hidden"`
	PreciseAddress string `json:"preciseAddress"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	s.createNamed(w, r, func(ctx context.Context, req createNamedRequest) (int64, error) {
		return s.repo.CreateCategory(ctx, req.Name, req.Hidden)
	})
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	s.createNamed(w, r, func(ctx context.Context, req createNamedRequest) (int64, error) {
		return s.repo.CreatePerson(ctx, req.Name)
	})
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	s.createNamed(w, r, func(ctx context.Context, req createNamedRequest) (int64, error) {
		return s.repo.CreateLocation(ctx, req.Name, req.PreciseAddress)
	})
}

func (s *Server) handleCreateMeasurement(w http.ResponseWriter, r *http.Request) {
	s.createNamed(w, r, func(ctx context.Context, req createNamedRequest) (int64, error) {
		return s.repo.CreateMeasurement(ctx, req.Name)
	})
}

func (s *Server) createNamed(w http.ResponseWriter, r *http.Request, insert func(context.Context, createNamedRequest) (int64, error)) {
	if !s.requireRepo(w) {
		return
	}

	var req createNamedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing name")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	id, err := insert(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create record", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create record")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	listRecords(s, w, r, s.repo.ListCategories, func(c storage.Category) map[string]any {
		return map[string]any{"id": c.ID, "name": c.Name, "hidden": c.Hidden}
	})
}

func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	listRecords(s, w, r, s.repo.ListPeople, func(p storage.Person) map[string]any {
		return map[string]any{"id": p.ID, "name": p.Name}
	})
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	listRecords(s, w, r, s.repo.ListLocations, func(l storage.Location) map[string]any {
		return map[string]any{"id": l.ID, "name": l.Name, "preciseAddress": l.PreciseAddress}
	})
}

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	if !s.requireRepo(w) {
		return
	}
	listRecords(s, w, r, s.repo.ListMeasurements, func(m storage.Measurement) map[string]any {
		return map[string]any{"id": m.ID, "name": m.Name}
	})
}

func listRecords[T any](s *Server, w http.ResponseWriter, r *http.Request, list func(context.Context) ([]T, error), render func(T) map[string]any) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	records, err := list(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list records", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, render(rec))
	}
	writeJSON(w, http.StatusOK, out)
}
