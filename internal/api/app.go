// Package api exposes the journal over a loopback JSON API and as MCP tools.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kalambet/quarterlog/internal/export"
	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/metrics"
	"github.com/kalambet/quarterlog/internal/settings"
	"github.com/kalambet/quarterlog/internal/storage"
	"github.com/kalambet/quarterlog/internal/timecalc"
	"github.com/kalambet/quarterlog/internal/worker"
)

type AppDeps struct {
	Store    *storage.Store
	Settings *settings.Manager
	Service  *Service
	Metrics  *metrics.Metrics
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(instrument(deps.Metrics))

	r.Get("/health", handleHealth)
	r.Handle("/metrics", deps.Metrics.Handler())

	r.Route("/entries", func(r chi.Router) {
		r.Get("/", handleListEntries(deps))
		r.Post("/", handleCreateEntry(deps))
		r.Delete("/{id}", handleDeleteEntry(deps))
	})

	r.Get("/score", handleScore(deps))
	r.Get("/score/history", handleHistory(deps))
	r.Get("/streak", handleStreak(deps))
	r.Get("/rank", handleRank(deps))
	r.Get("/insights", handleInsights(deps))
	r.Get("/debrief", handleDebrief(deps))

	r.Get("/schedule", handleGetSchedule(deps))
	r.Put("/schedule", handlePutSchedule(deps))
	r.Get("/settings", handleGetSettings(deps))
	r.Patch("/settings", handlePatchSettings(deps))

	r.Route("/plans/{date}", func(r chi.Router) {
		r.Get("/", handleGetPlan(deps))
		r.Put("/", handlePutPlan(deps))
		r.Delete("/", handleDeletePlan(deps))
		r.Get("/adherence", handleAdherence(deps))
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", handleListReports(deps))
		r.Post("/", handleGenerateReport(deps))
		r.Get("/{key}", handleGetReport(deps))
		r.Post("/{key}/read", handleMarkReportRead(deps))
	})

	r.Get("/export", handleExport(deps))

	return r
}

// instrument records request counts and latency by route pattern.
func instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveHTTP(r.Method, route, status, time.Since(start))
		})
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleListEntries(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		period, day, err := deps.Service.Window(q.Get("period"), q.Get("date"))
		if err != nil {
			serviceError(w, "list entries", err)
			return
		}
		entries, err := deps.Service.Entries(r.Context(), period, day)
		if err != nil {
			serviceError(w, "list entries", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleCreateEntry(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LogRequest
		if !decodeBody(w, r, &req) {
			return
		}
		req.Source = "api"
		if src := r.Header.Get("X-Quarterlog-Source"); src != "" {
			req.Source = src
		}

		e, err := deps.Service.LogEntry(r.Context(), req)
		if err != nil {
			serviceError(w, "log entry", err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func handleDeleteEntry(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Store.DeleteEntry(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			serviceError(w, "entry", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleScore(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		period, day, err := deps.Service.Window(q.Get("period"), q.Get("date"))
		if err != nil {
			serviceError(w, "compute score", err)
			return
		}
		v, err := deps.Service.Score(r.Context(), period, day)
		if err != nil {
			serviceError(w, "compute score", err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func handleHistory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := parseIntParam(r, "days", 0, 366)
		hist, err := deps.Service.History(r.Context(), days)
		if err != nil {
			serviceError(w, "compute history", err)
			return
		}
		writeJSON(w, http.StatusOK, hist)
	}
}

func handleStreak(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := deps.Service.Streak(r.Context())
		if err != nil {
			serviceError(w, "compute streak", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"streak": n})
	}
}

func handleRank(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		period, day, err := deps.Service.Window(q.Get("period"), q.Get("date"))
		if err != nil {
			serviceError(w, "compute rank", err)
			return
		}
		p, err := deps.Service.Rank(r.Context(), period, day)
		if err != nil {
			serviceError(w, "compute rank", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleInsights(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := deps.Service.Insights(r.Context(), parseIntParam(r, "max", 0, 20))
		if err != nil {
			serviceError(w, "generate insights", err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func handleDebrief(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := deps.Service.Day(r.URL.Query().Get("date"))
		if err != nil {
			serviceError(w, "build debrief", err)
			return
		}
		d, err := deps.Service.Debrief(r.Context(), day)
		if err != nil {
			serviceError(w, "build debrief", err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleGetSchedule(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Settings.Schedule(r.Context())
		if err != nil {
			serviceError(w, "load schedule", err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handlePutSchedule(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s journal.Schedule
		if !decodeBody(w, r, &s) {
			return
		}
		if err := s.Validate(); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid schedule: %v", err)
			return
		}
		if err := deps.Settings.SetSchedule(r.Context(), s); err != nil {
			serviceError(w, "save schedule", err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handleGetSettings(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Settings.Get(r.Context())
		if err != nil {
			serviceError(w, "load settings", err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handlePatchSettings(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p settings.Patch
		if !decodeBody(w, r, &p) {
			return
		}
		if err := p.Validate(); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Settings.Apply(r.Context(), p); err != nil {
			serviceError(w, "save settings", err)
			return
		}
		s, err := deps.Settings.Get(r.Context())
		if err != nil {
			serviceError(w, "load settings", err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func planDate(w http.ResponseWriter, r *http.Request, deps AppDeps) (time.Time, bool) {
	day, err := deps.Service.Day(chi.URLParam(r, "date"))
	if err != nil {
		serviceError(w, "plan", err)
		return time.Time{}, false
	}
	return day, true
}

func handleGetPlan(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := planDate(w, r, deps)
		if !ok {
			return
		}
		p, err := deps.Store.GetDayPlan(r.Context(), timecalc.DateKey(day))
		if err != nil {
			serviceError(w, "plan", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handlePutPlan(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := planDate(w, r, deps)
		if !ok {
			return
		}
		var p journal.DayPlan
		if !decodeBody(w, r, &p) {
			return
		}
		p.DateKey = timecalc.DateKey(day)
		for i := range p.Blocks {
			p.Blocks[i].Category = journal.ParseCategory(string(p.Blocks[i].Category))
		}
		if err := p.Validate(); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid plan: %v", err)
			return
		}
		if err := deps.Store.SaveDayPlan(r.Context(), p); err != nil {
			serviceError(w, "save plan", err)
			return
		}
		saved, err := deps.Store.GetDayPlan(r.Context(), p.DateKey)
		if err != nil {
			serviceError(w, "plan", err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func handleDeletePlan(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := planDate(w, r, deps)
		if !ok {
			return
		}
		if err := deps.Store.DeleteDayPlan(r.Context(), timecalc.DateKey(day)); err != nil {
			serviceError(w, "plan", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAdherence(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := planDate(w, r, deps)
		if !ok {
			return
		}
		rep, err := deps.Service.Adherence(r.Context(), day)
		if err != nil {
			serviceError(w, "compute adherence", err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func handleListReports(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := deps.Store.ListReports(r.Context(), parseIntParam(r, "limit", 20, 100))
		if err != nil {
			serviceError(w, "list reports", err)
			return
		}
		if reports == nil {
			reports = []storage.Report{}
		}
		writeJSON(w, http.StatusOK, reports)
	}
}

func handleGetReport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := deps.Store.GetReport(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			serviceError(w, "report", err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

type generateRequest struct {
	Period string `json:"period"`
	Date   string `json:"date"`
}

func handleGenerateReport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		period, day, err := deps.Service.Window(req.Period, req.Date)
		if err != nil {
			serviceError(w, "queue report", err)
			return
		}
		dateKey := timecalc.DateKey(day)
		added, err := worker.EnqueueReport(r.Context(), deps.Store, period, dateKey)
		if err != nil {
			serviceError(w, "queue report", err)
			return
		}
		status := "queued"
		if !added {
			status = "already_queued"
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"key":    worker.ReportKey(period, dateKey),
			"status": status,
		})
	}
}

func handleMarkReportRead(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Store.MarkReportRead(r.Context(), chi.URLParam(r, "key")); err != nil {
			serviceError(w, "report", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleExport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f, err := export.ParseFormat(q.Get("format"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		periodParam := q.Get("period")
		if periodParam == "" {
			periodParam = string(timecalc.PeriodAll)
		}
		period, day, err := deps.Service.Window(periodParam, q.Get("date"))
		if err != nil {
			serviceError(w, "export", err)
			return
		}
		entries, err := deps.Service.Entries(r.Context(), period, day)
		if err != nil {
			serviceError(w, "export", err)
			return
		}

		now := deps.Service.now()
		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename(now)))
		if err := export.Write(w, f, entries, now, deps.Service.Location()); err != nil {
			// Headers are already sent.
			slog.Warn("export write failed", "format", f, "error", err)
		}
	}
}
