package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/sitelens/internal/app"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	_ "github.com/raysh454/sitelens/internal/server/docs"
	"github.com/raysh454/sitelens/internal/tracker"
)

// maxLoggedBody caps how much of a request body ends up in the access log.
const maxLoggedBody = 2048

// Server is the HTTP + WebSocket API surface for SiteLens.
type Server struct {
	cfg      Config
	app      *app.Application
	ownsApp  bool
	router   chi.Router
	upgrader websocket.Upgrader
	limiter  *rateLimiterMap
	logger   logging.Logger
}

// NewServer creates a Server. When cfg.App is nil the server builds and owns
// its own Application.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	application := cfg.App
	ownsApp := false
	if application == nil {
		if cfg.AppConfig == nil {
			cfg.AppConfig = app.DefaultConfig()
		}
		a, err := app.NewApplication(cfg.AppConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("creating application: %w", err)
		}
		if err := a.Start(); err != nil {
			return nil, fmt.Errorf("starting application: %w", err)
		}
		application = a
		ownsApp = true
	}
	cfg.AppConfig = application.Config
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = cfg.AppConfig.Server.Addr
	}

	s := &Server{
		cfg:     cfg,
		app:     application,
		ownsApp: ownsApp,
		router:  chi.NewRouter(),
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				allowed := cfg.AppConfig.Server.AllowedOrigin
				return allowed == "" || allowed == "*" || r.Header.Get("Origin") == allowed
			},
		},
	}
	if rl := cfg.AppConfig.Server.RateLimit; rl > 0 {
		s.limiter = newRateLimiterMap(rl, cfg.AppConfig.Server.RateBurst)
	}

	s.routes()
	return s, nil
}

// App returns the underlying application for advanced use (tests, etc.).
func (s *Server) App() *app.Application {
	return s.app
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}

		// These answer every method so a wrong one gets a JSON 405.
		r.HandleFunc("/api/scan", s.handleScan(model.ModeBasic))
		r.HandleFunc("/api/advanced-scan", s.handleScan(model.ModeRendered))

		r.Post("/jobs/scan", s.handleStartScanJob)
		r.Get("/ws/scan", s.handleScanWS)
		r.HandleFunc("/proxy", s.handleProxy)
	})

	// CORS preflight
	r.Options("/api/scan", s.optionsHandler("POST"))
	r.Options("/api/advanced-scan", s.optionsHandler("POST"))
	r.Options("/jobs/scan", s.optionsHandler("POST"))
	r.Options("/jobs", s.optionsHandler("GET"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))
	r.Options("/scans", s.optionsHandler("GET"))
	r.Options("/scans/{scanID}", s.optionsHandler("GET"))
	r.Options("/scans/{baseID}/diff/{headID}", s.optionsHandler("GET"))
	r.Options("/proxy", s.optionsHandler("GET"))

	// Jobs over REST
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// History
	r.Get("/scans", s.handleListScans)
	r.Get("/scans/{scanID}", s.handleGetScan)
	r.Get("/scans/{baseID}/diff/{headID}", s.handleDiffScans)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origin := s.cfg.AppConfig.Server.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			logged := bodyBytes
			if len(logged) > maxLoggedBody {
				logged = logged[:maxLoggedBody]
			}
			fields = append(fields, logging.Field{Key: "body", Value: string(logged)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close stops the rate limiter and, when the server owns it, shuts the
// application down.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.close()
	}
	if s.ownsApp && s.app != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.app.Shutdown(ctx); err != nil {
			s.logger.Warn("shutting down application", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeScanError answers with the status and message a ScanError carries.
func writeScanError(w http.ResponseWriter, err error) {
	var se *app.ScanError
	if errors.As(err, &se) {
		writeError(w, se.Status, se.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to scan website. Please check the URL and try again.")
}

func decodeScanBody(r *http.Request) (ScanRequestBody, error) {
	var body ScanRequestBody
	err := json.NewDecoder(r.Body).Decode(&body)
	return body, err
}

// --- HTTP handlers ---

// handleHealth godoc
// @Summary Liveness
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Scans

// handleScan godoc
// @Summary Scan a website
// @Tags scan
// @Accept json
// @Produce json
// @Param request body ScanRequestBody true "Scan target"
// @Success 200 {object} model.ScanResult
// @Failure 400 {object} ErrorResponse
// @Failure 405 {object} ErrorResponse
// @Failure 408 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/scan [post]
// @Router /api/advanced-scan [post]
func (s *Server) handleScan(mode model.ScanMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		body, err := decodeScanBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		req := body.toModel()
		req.Mode = mode

		res, err := s.app.Orch.Scan(r.Context(), req)
		if err != nil {
			writeScanError(w, err)
			return
		}
		s.logger.Info("scan finished",
			logging.Field{Key: "url", Value: res.URL},
			logging.Field{Key: "mode", Value: string(mode)})
		writeJSON(w, http.StatusOK, res)
	}
}

// Jobs

// handleStartScanJob godoc
// @Summary Start a background scan
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body ScanRequestBody true "Scan target"
// @Success 202 {object} app.Job
// @Failure 400 {object} ErrorResponse
// @Router /jobs/scan [post]
func (s *Server) handleStartScanJob(w http.ResponseWriter, r *http.Request) {
	body, err := decodeScanBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req := body.toModel()
	if _, _, se := app.CheckRequest(req); se != nil {
		writeError(w, se.Status, se.Message)
		return
	}

	// Jobs outlive the request; bind them to the application instead.
	job, err := s.app.Orch.StartScanJob(s.app.Context(), req)
	if err != nil {
		s.logger.Warn("starting scan job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.logger.Info("started scan job", logging.Field{Key: "job_id", Value: job.ID})
	writeJSON(w, http.StatusAccepted, job)
}

// @Summary Get a job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} app.Job
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.app.Orch.GetJob(jobID)
	if job == nil {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// @Summary Cancel a job
// @Tags jobs
// @Param jobID path string true "Job ID"
// @Success 204
// @Router /jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	s.app.Orch.CancelJob(jobID)
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

// @Summary List jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} app.Job
// @Router /jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.app.Orch.ListJobs()
	writeJSON(w, http.StatusOK, jobs)
}

// History

// @Summary List stored scans
// @Tags history
// @Produce json
// @Param site query string false "Site host"
// @Param limit query int false "Maximum results"
// @Success 200 {array} tracker.ScanSummary
// @Router /scans [get]
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	opts := tracker.ListOptions{Site: r.URL.Query().Get("site")}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		v, err := strconv.Atoi(ls)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = v
	}

	scans, err := s.app.Orch.ListScans(r.Context(), opts)
	if err != nil {
		s.writeHistoryError(w, err)
		return
	}
	if scans == nil {
		scans = []tracker.ScanSummary{}
	}
	writeJSON(w, http.StatusOK, scans)
}

// @Summary Get a stored scan
// @Tags history
// @Produce json
// @Param scanID path string true "Scan ID"
// @Success 200 {object} model.ScanResult
// @Failure 404 {object} ErrorResponse
// @Router /scans/{scanID} [get]
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.Orch.GetScan(r.Context(), chi.URLParam(r, "scanID"))
	if err != nil {
		s.writeHistoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// @Summary Diff two scans of the same site
// @Tags history
// @Produce json
// @Param baseID path string true "Older scan ID"
// @Param headID path string true "Newer scan ID"
// @Success 200 {object} tracker.ScanDiff
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /scans/{baseID}/diff/{headID} [get]
func (s *Server) handleDiffScans(w http.ResponseWriter, r *http.Request) {
	d, err := s.app.Orch.DiffScans(r.Context(), chi.URLParam(r, "baseID"), chi.URLParam(r, "headID"))
	if err != nil {
		s.writeHistoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) writeHistoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrScanNotFound):
		writeError(w, http.StatusNotFound, "scan not found")
	case errors.Is(err, tracker.ErrSiteMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Warn("reading scan history", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// WebSockets

// handleScanWS starts a scan job and streams its events. Query parameters
// mirror ScanRequestBody: url, mode, deep, skipScreenshots, skipWhois.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := model.ScanRequest{
		URL:             q.Get("url"),
		Mode:            model.ScanMode(q.Get("mode")),
		DeepScan:        queryBool(q.Get("deep")),
		SkipScreenshots: queryBool(q.Get("skipScreenshots")),
		SkipWhois:       queryBool(q.Get("skipWhois")),
	}
	if _, _, se := app.CheckRequest(req); se != nil {
		writeError(w, se.Status, se.Message)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job, err := s.app.Orch.StartScanJob(s.app.Context(), req)
	if err != nil {
		s.logger.Warn("starting scan job", logging.Field{Key: "error", Value: err.Error()})
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("started scan job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.app.Orch.CancelJob(job.ID)
			return
		}
	}

	// Final snapshot carries the result or the error status.
	if final := s.app.Orch.GetJob(job.ID); final != nil {
		_ = conn.WriteJSON(final)
	}
}

func queryBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
