package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"lifelog/internal/core"
	"lifelog/internal/services"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	o := s.summary.Overview()
	writeJSON(w, http.StatusOK, overviewDTO{
		EventCount:     o.EventCount,
		PeopleMet:      o.PeopleMet,
		PlacesVisited:  o.PlacesVisited,
		TotalSpent:     o.TotalSpent,
		SkippedRecords: s.summary.SkippedRecords(),
		LastRefreshed:  s.summary.LastRefreshed(),
	})
}

func (s *Server) handleHomeFeed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toEventDTOs(s.summary.HomeFeed()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	if err := s.summary.Refresh(ctx); err != nil {
		slog.ErrorContext(ctx, "Refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, "refresh failed, previous views still served")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"refreshedAt": s.summary.LastRefreshed(),
		"skipped":     s.summary.SkippedRecords(),
	})
}

// handleView serves one aggregate view, with optional ?sort=<metric> and
// case-insensitive ?q=<name substring>.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	view := services.View(r.PathValue("view"))
	sortKey := r.URL.Query().Get("sort")
	nameFilter := r.URL.Query().Get("q")

	var (
		payload any
		err     error
	)
	switch view {
	case services.ViewCategory:
		var rows []core.CategoryStat
		if rows, err = s.summary.CategoryView(sortKey, nameFilter); err == nil {
			out := make([]categoryRowDTO, 0, len(rows))
			for _, row := range rows {
				out = append(out, categoryRowDTO{CategoryID: row.CategoryID, Name: row.Name, EventCount: row.EventCount})
			}
			payload = out
		}
	case services.ViewPerson:
		var rows []core.PersonStat
		if rows, err = s.summary.PersonView(sortKey, nameFilter); err == nil {
			out := make([]personRowDTO, 0, len(rows))
			for _, row := range rows {
				out = append(out, personRowDTO{PersonID: row.PersonID, Name: row.Name, EventCount: row.EventCount})
			}
			payload = out
		}
	case services.ViewLocation:
		var rows []core.LocationStat
		if rows, err = s.summary.LocationView(sortKey, nameFilter); err == nil {
			out := make([]locationRowDTO, 0, len(rows))
			for _, row := range rows {
				out = append(out, locationRowDTO{LocationID: row.LocationID, Name: row.Name, VisitCount: row.VisitCount, TotalSpent: row.TotalSpent})
			}
			payload = out
		}
	case services.ViewDay:
		var rows []core.DayStat
		if rows, err = s.summary.DayView(sortKey, nameFilter); err == nil {
			out := make([]dayRowDTO, 0, len(rows))
			for _, row := range rows {
				out = append(out, dayRowDTO{Day: row.Day, EventCount: row.EventCount, TotalSpent: row.TotalSpent})
			}
			payload = out
		}
	default:
		writeError(w, http.StatusNotFound, "unknown view: "+string(view))
		return
	}

	if err != nil {
		if errors.Is(err, core.ErrUnknownMetric) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to build view")
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

type selectRequest struct {
	Key string `json:"key"`
}

type selectResponse struct {
	Selected bool       `json:"selected"`
	Key      string     `json:"key,omitempty"`
	Events   []eventDTO `json:"events,omitempty"`
}

// handleSelect clicks an aggregate row. Clicking the already-selected key
// deselects it and returns no subset.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	view := services.View(r.PathValue("view"))

	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "missing selection key")
		return
	}

	res, err := s.summary.Select(view, req.Key)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownView):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrBadKey):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "selection failed")
		}
		return
	}

	resp := selectResponse{Selected: res.Selected}
	if res.Selected {
		resp.Key = req.Key
		resp.Events = toEventDTOs(res.Events)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCurrentSelection(w http.ResponseWriter, r *http.Request) {
	view := services.View(r.PathValue("view"))

	key, selected, err := s.summary.CurrentSelection(view)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := selectResponse{Selected: selected, Key: key}
	writeJSON(w, http.StatusOK, resp)
}
