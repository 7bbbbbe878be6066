package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bluemoon/internal/services"
)

// cachedReport serves a report from the LRU when possible, otherwise loads a
// fresh snapshot, builds the payload and caches the rendered bytes keyed by
// path and query.
func (s *Server) cachedReport(w http.ResponseWriter, r *http.Request, build func(snap services.Snapshot) (any, error)) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	key := r.URL.Path + "?" + r.URL.RawQuery
	if body, ok := s.reportCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	snap, err := s.snapshots.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, fmt.Errorf("load snapshot: %w", err))
		return
	}
	report, err := build(snap)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := json.Marshal(report)
	if err != nil {
		writeError(w, r, fmt.Errorf("encode report: %w", err))
		return
	}
	s.reportCache.Set(key, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleOverviewReport(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.cachedReport(w, r, func(snap services.Snapshot) (any, error) {
		return s.reports.Overview(snap, window), nil
	})
}

func (s *Server) handleFeeTypeReport(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.cachedReport(w, r, func(snap services.Snapshot) (any, error) {
		return s.reports.ByFeeType(snap, window), nil
	})
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, ok, err := queryInt(r, "year")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		year = time.Now().UTC().Year()
	}
	s.cachedReport(w, r, func(snap services.Snapshot) (any, error) {
		return s.reports.MonthlyTrend(snap, year), nil
	})
}

func (s *Server) handleComparisonReport(w http.ResponseWriter, r *http.Request) {
	kind, err := services.ParseComparisonKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, r, badRequest(err.Error()))
		return
	}

	now := time.Now().UTC()
	year, ok, err := queryInt(r, "year")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		year = now.Year()
	}
	month, ok, err := queryInt(r, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		writeError(w, r, badRequest("month out of range"))
		return
	}

	s.cachedReport(w, r, func(snap services.Snapshot) (any, error) {
		return s.reports.Comparison(snap, kind, year, month), nil
	})
}

func (s *Server) handleHouseholdStatusReport(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.cachedReport(w, r, func(snap services.Snapshot) (any, error) {
		return s.reports.HouseholdStatus(snap, window), nil
	})
}
