package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/iyervish/design-crit/internal/application/analysis"
	domain "github.com/iyervish/design-crit/internal/domain/analysis"
	"github.com/iyervish/design-crit/internal/middleware"
)

// multipart memory ceiling; the upload itself is re-checked against the
// 10 MiB limit in the application layer
const maxMultipartMemory = 12 << 20

type Router struct {
	svc *appanalysis.Service
}

// Options carries the transport-level knobs wired from config.
type Options struct {
	AllowedOrigins    []string
	RateLimitCapacity int
	RateLimitRefill   int
	HealthCheckers    map[string]middleware.HealthChecker
}

func NewRouter(svc *appanalysis.Service, opts Options) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if len(opts.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
	if opts.RateLimitCapacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimitCapacity, opts.RateLimitRefill))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/results", r.wrap(r.handleRecent))
		rt.Get("/results/{id}", r.wrap(r.handleGetResult))
		rt.Get("/screenshots/{id}.png", r.wrap(r.handleGetScreenshot))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap collapses pipeline errors to the small caller-visible set: intake
// failures keep their message with a 400, unknown ids map to 404, everything
// else becomes one generic 500 per failure stage.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Msg)
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Result not found")
		case errors.Is(err, domain.ErrCaptureFailed):
			writeError(w, http.StatusInternalServerError, "Failed to capture screenshot. Please try again.")
		default:
			log.Printf("pipeline error: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to analyze design. Please try again.")
		}
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// POST /api/analyze
// Multipart form: type=url|screenshot plus value (URL) or screenshot (file).
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseMultipartForm(maxMultipartMemory); err != nil {
		return domain.NewValidationError("Invalid form data")
	}

	cmd := appanalysis.AnalyzeCommand{
		Type: req.FormValue("type"),
		URL:  req.FormValue("value"),
	}

	if file, header, err := req.FormFile("screenshot"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, appanalysis.MaxUploadBytes+1))
		if err != nil {
			return domain.NewValidationError("Could not read screenshot file")
		}
		cmd.ImageBytes = data
		cmd.Filename = header.Filename
	}

	res, err := r.svc.Analyze(req.Context(), cmd)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	middleware.IncrementAnalyses()

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{
		"id":      res.ID,
		"success": true,
	})
}

// GET /api/results/{id}
func (r *Router) handleGetResult(w http.ResponseWriter, req *http.Request) error {
	id := domain.ResultID(chi.URLParam(req, "id"))

	res, _, err := r.svc.Get(req.Context(), id)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

// GET /api/screenshots/{id}.png
func (r *Router) handleGetScreenshot(w http.ResponseWriter, req *http.Request) error {
	id := domain.ResultID(chi.URLParam(req, "id"))

	_, image, err := r.svc.Get(req.Context(), id)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(image)))
	_, err = w.Write(image)
	return err
}

// GET /api/results?page=&page_size=
func (r *Router) handleRecent(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.Recent(req.Context(), page, size)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}
