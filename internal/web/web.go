// Package web exposes the scheduler over HTTP for the on-device widget.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dialcal/internal/config"
	"dialcal/internal/dial"
	"dialcal/internal/event"
	"dialcal/internal/ics"
	appLog "dialcal/internal/log"
	"dialcal/internal/model"
	"dialcal/internal/render"
	"dialcal/internal/settings"
)

// Server routes widget API requests onto the event service. Handlers
// hold no state of their own: the event service and the importer each
// serialize their own read-modify-write cycles, so concurrent requests
// and the maintenance cron need no coordination here.
type Server struct {
	cfg      *config.Config
	svc      *event.Service
	settings *settings.Store
	importer *ics.Importer
	loc      *time.Location
	mux      *http.ServeMux
}

// NewServer constructs a Server. importer may be nil when no ICS feeds
// are configured.
func NewServer(cfg *config.Config, svc *event.Service, st *settings.Store, importer *ics.Importer) *Server {
	s := &Server{
		cfg:      cfg,
		svc:      svc,
		settings: st,
		importer: importer,
		loc:      resolveLocationOrLocal(cfg.Timezone),
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, wrapped with basic auth
// when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password is treated as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="dialcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/events/", s.handleEventsSub)
	s.mux.HandleFunc("/api/settings", s.handleSettings)
	s.mux.HandleFunc("/api/hittest", s.handleHitTest)
	s.mux.HandleFunc("/api/export.ics", s.handleExport)
	s.mux.HandleFunc("/api/import", s.handleImport)
	s.mux.HandleFunc("/preview.svg", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleEvents serves the collection root:
//
//	GET    /api/events  full stored collection
//	POST   /api/events  create (returns the record with its assigned ID)
//	DELETE /api/events  clear the whole collection
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.svc.All())

	case http.MethodPost:
		var ev model.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			writeError(w, http.StatusBadRequest, "malformed event JSON")
			return
		}
		created, err := s.svc.Create(ev)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodDelete:
		if err := s.svc.ClearAll(); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to clear events")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleEventsSub serves the listing views and per-ID operations:
//
//	GET    /api/events/week?date=YYYY-MM-DD
//	GET    /api/events/actual
//	GET    /api/events/counts
//	PUT    /api/events/{id}
//	DELETE /api/events/{id}
func (s *Server) handleEventsSub(w http.ResponseWriter, r *http.Request) {
	suffix := strings.TrimPrefix(r.URL.Path, "/api/events/")

	switch suffix {
	case "week":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ref, err := s.parseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD or RFC 3339")
			return
		}
		writeJSON(w, http.StatusOK, s.svc.ListForWeek(ref))

	case "actual":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, s.svc.ListActual())

	case "counts":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, s.svc.CountAll())

	case "":
		http.NotFound(w, r)

	default:
		s.handleEventByID(w, r, suffix)
	}
}

func (s *Server) handleEventByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodPut:
		var ev model.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			writeError(w, http.StatusBadRequest, "malformed event JSON")
			return
		}
		ev.ID = id
		if err := s.svc.Edit(ev); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ev)

	case http.MethodDelete:
		remaining, err := s.svc.Delete(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete event")
			return
		}
		// Unknown IDs are a no-op, not an error.
		writeJSON(w, http.StatusOK, remaining)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSettings serves GET (current settings) and PUT (validated save).
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.settings.Load())

	case http.MethodPut:
		var st model.Settings
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			writeError(w, http.StatusBadRequest, "malformed settings JSON")
			return
		}
		if err := s.settings.Save(st); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleHitTest maps a tap coordinate onto the occurrences under it.
//
//	GET /api/hittest?x=123&y=456&size=480
func (s *Server) handleHitTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, "x and y must be numbers")
		return
	}
	size := parseIntDefault(q.Get("size"), render.DefaultSize)
	if size <= 0 {
		size = render.DefaultSize
	}
	center := float64(size) / 2
	radius := render.FaceRadius(size)

	hits := make([]model.Occurrence, 0)
	for _, occ := range s.svc.ListActual() {
		if dial.PointInSector(x, y, center, center, radius, occ.StartAngle, occ.EndAngle) {
			hits = append(hits, occ)
		}
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body := ics.Export(s.svc.All())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="dialcal.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleImport triggers an immediate refresh of the configured feeds.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.importer == nil || len(s.cfg.ICS) == 0 {
		writeError(w, http.StatusConflict, "no ICS sources configured")
		return
	}

	sources := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, c := range s.cfg.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.Name
		}
		sources = append(sources, ics.Source{ID: id, URL: c.URL})
	}

	imported, err := s.importer.Refresh(r.Context(), sources)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	size := parseIntDefault(r.URL.Query().Get("size"), render.DefaultSize)
	svg := render.Dial(s.svc.ListActual(), time.Now().In(s.loc), size)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// parseDate accepts YYYY-MM-DD or RFC 3339; empty means "today".
func (s *Server) parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Now().In(s.loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", v, s.loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

// StartServer serves the API on cfg.Listen until ctx is canceled, then
// shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, s *Server) error {
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeServiceError distinguishes shape errors (client's fault, with
// the offending field named) from persistence failures.
func writeServiceError(w http.ResponseWriter, err error) {
	var fieldErr *model.FieldError
	if errors.As(err, &fieldErr) {
		writeError(w, http.StatusUnprocessableEntity, fieldErr.Error())
		return
	}
	appLog.Error("event operation failed", err)
	writeError(w, http.StatusInternalServerError, "operation failed")
}
