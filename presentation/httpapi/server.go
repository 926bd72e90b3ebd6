package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"quiz_solver/application/session"
	"quiz_solver/domain/entities"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// Service is the command set exposed over HTTP.
type Service interface {
	Status() entities.Status
	Start(speed int) session.Result
	Stop() session.Result
	Refresh(ctx context.Context) session.Result
	Submit(ctx context.Context) entities.SubmitResult
	History() ([]entities.SessionReport, error)
}

type startRequest struct {
	Speed int `json:"speed"`
}

type handler struct {
	svc          Service
	defaultSpeed int
	logger       *logrus.Logger
}

// NewRouter - builds the control API; origins lists the browser origins
// allowed to call it
func NewRouter(svc Service, defaultSpeed int, origins []string, logger *logrus.Logger) http.Handler {
	h := &handler{svc: svc, defaultSpeed: defaultSpeed, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	if len(origins) == 0 {
		origins = []string{"http://localhost:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/status", h.status)
	r.Get("/history", h.history)
	r.Route("/autosolve", func(ar chi.Router) {
		ar.Post("/start", h.start)
		ar.Post("/stop", h.stop)
	})
	r.Post("/refresh", h.refresh)
	r.Post("/submit", h.submit)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Status())
}

func (h *handler) start(w http.ResponseWriter, r *http.Request) {
	req := startRequest{Speed: h.defaultSpeed}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, session.Result{Error: "invalid request body"})
			return
		}
	}
	res := h.svc.Start(req.Speed)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusConflict
	}
	respondJSON(w, status, res)
}

func (h *handler) stop(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Stop())
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Refresh(r.Context()))
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	res := h.svc.Submit(r.Context())
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, res)
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.History()
	if err != nil {
		h.logger.WithError(err).Warn("Failed to load session history")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if reports == nil {
		reports = []entities.SessionReport{}
	}
	respondJSON(w, http.StatusOK, reports)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Serve - runs the control API on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, handler http.Handler, logger *logrus.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("Control API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
