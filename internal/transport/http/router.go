package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"mindgate-service/internal/app"
	"mindgate-service/internal/domain"
	"mindgate-service/internal/memorygrid"
)

// NewRouter exposes the training use cases over REST and the websocket play channel.
func NewRouter(service *app.TrainingService) http.Handler {
	h := &restHandler{service: service}
	ws := NewWSHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.catalog)
		r.Post("/sessions", h.startSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.view)
			r.Delete("/", h.end)
			r.Post("/start", h.start)
			r.Post("/next", h.intent(service.Next))
			r.Post("/finish", h.intent(service.Finish))
			r.Post("/submit", h.intent(service.Submit))
			r.Post("/games/{index}", h.selectGame)
			r.Post("/cells/{cell}", h.selectCell)
		})
	})
	return r
}

type restHandler struct {
	service *app.TrainingService
}

type viewResponse struct {
	View  domain.PlayerView `json:"view"`
	Error string            `json:"error,omitempty"`
}

type selectionResponse struct {
	View     domain.PlayerView `json:"view"`
	Selected bool              `json:"selected"`
}

func (h *restHandler) catalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.service.Catalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (h *restHandler) startSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.StartSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewResponse{View: view})
}

func (h *restHandler) view(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), chi.URLParam(r, "sessionID"))
	writeView(w, view, err)
}

func (h *restHandler) start(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Start(r.Context(), chi.URLParam(r, "sessionID"))
	writeView(w, view, err)
}

func (h *restHandler) end(w http.ResponseWriter, r *http.Request) {
	h.service.End(r.Context(), chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *restHandler) intent(fn func(ctx context.Context, sessionID string) (domain.PlayerView, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := fn(r.Context(), chi.URLParam(r, "sessionID"))
		writeView(w, view, err)
	}
}

func (h *restHandler) selectGame(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid game index", http.StatusBadRequest)
		return
	}
	view, ok, err := h.service.SelectGame(r.Context(), chi.URLParam(r, "sessionID"), index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse{View: view, Selected: ok})
}

func (h *restHandler) selectCell(w http.ResponseWriter, r *http.Request) {
	cell, err := strconv.Atoi(chi.URLParam(r, "cell"))
	if err != nil {
		http.Error(w, "invalid cell", http.StatusBadRequest)
		return
	}
	view, err := h.service.SelectCell(r.Context(), chi.URLParam(r, "sessionID"), cell)
	writeView(w, view, err)
}

// writeView always returns the view; submission failures are part of it and keep 200.
func writeView(w http.ResponseWriter, view domain.PlayerView, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, viewResponse{View: view})
	case isSubmissionError(err):
		writeJSON(w, http.StatusOK, viewResponse{View: view, Error: err.Error()})
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, err)
	default:
		writeJSON(w, statusFor(err), viewResponse{View: view, Error: err.Error()})
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrCatalogNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrIntentMismatch),
		errors.Is(err, domain.ErrNoActiveRound),
		errors.Is(err, memorygrid.ErrPatternShowing):
		return http.StatusConflict
	case errors.Is(err, memorygrid.ErrCellOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isSubmissionError(err error) bool {
	return errors.Is(err, domain.ErrSubmissionRejected) ||
		errors.Is(err, domain.ErrSubmissionTimeout) ||
		errors.Is(err, domain.ErrSubmissionCanceled)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
