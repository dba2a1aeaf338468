package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitepulse/internal/audit"
	"github.com/JakeFAU/sitepulse/internal/compare"
	"github.com/JakeFAU/sitepulse/internal/config"
	"github.com/JakeFAU/sitepulse/internal/metrics"
	"github.com/JakeFAU/sitepulse/internal/report"
)

const (
	maxRequestBytes = 16 << 10
	publishTimeout  = 5 * time.Second
	anonymousClient = "anon"
)

// Auditor runs one audit. *audit.Auditor satisfies it.
type Auditor interface {
	Run(ctx context.Context, rawURL string, opts audit.Options) (report.Report, error)
}

// Server wires HTTP handlers to the audit pipeline and its collaborators.
type Server struct {
	router    chi.Router
	auditor   Auditor
	store     audit.ReportStore
	throttle  audit.Throttle
	publisher audit.Publisher
	topic     string
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes. throttle and
// publisher may be nil.
func NewServer(
	auditor Auditor,
	store audit.ReportStore,
	throttle audit.Throttle,
	publisher audit.Publisher,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")
	metrics.Init()

	s := &Server{
		auditor:   auditor,
		store:     store,
		throttle:  throttle,
		publisher: publisher,
		topic:     cfg.Publisher.Topic,
		logger:    logger,
	}

	requestTimeout := cfg.Server.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(timeoutMiddleware(requestTimeout))
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Post("/audits", s.createAudit)
		r.Route("/reports/{id}", func(r chi.Router) {
			r.Get("/", s.getReport)
			r.Get("/diff/{previous_id}", s.diffReports)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The store and throttle are in-process.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type auditRequest struct {
	URL        string `json:"url"`
	PreviousID string `json:"previous_id"`
}

type auditResponse struct {
	report.Report
	Comparison *compare.Comparison `json:"comparison,omitempty"`
}

func (s *Server) createAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, apiError{
			Code:    codeBadRequest,
			Message: "Request body must be JSON with a url field.",
		})
		return
	}

	if s.throttle != nil {
		allowed, remaining := s.throttle.TakeToken(clientKey(r))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			metrics.ObserveRateLimited()
			writeError(w, http.StatusTooManyRequests, apiError{
				Code:    codeRateLimited,
				Message: "Too many audits from this client.",
				Hint:    "Wait a few seconds before requesting another audit.",
			})
			return
		}
	}

	rep, err := s.auditor.Run(r.Context(), req.URL, audit.Options{PreviousID: req.PreviousID})
	if err != nil {
		writeAuditError(w, err)
		return
	}

	if err := s.store.Put(r.Context(), rep.ID, rep); err != nil {
		s.logger.Error("store report failed", zap.String("report_id", rep.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, apiError{Code: codeInternal, Message: "Failed to store report."})
		return
	}
	s.publish(r.Context(), rep)

	resp := auditResponse{Report: rep}
	if rep.PreviousID != "" {
		prev, ok, err := s.store.Get(r.Context(), rep.PreviousID)
		switch {
		case err != nil:
			s.logger.Warn("load previous report failed", zap.String("previous_id", rep.PreviousID), zap.Error(err))
		case ok:
			cmp := compare.Reports(rep, prev)
			resp.Comparison = &cmp
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) publish(ctx context.Context, rep report.Report) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	msgID, err := s.publisher.Publish(ctx, s.topic, audit.NewCompletedEvent(rep))
	if err != nil {
		s.logger.Warn("publish audit event failed", zap.String("report_id", rep.ID), zap.Error(err))
		return
	}
	s.logger.Debug("published audit event", zap.String("report_id", rep.ID), zap.String("message_id", msgID))
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) diffReports(w http.ResponseWriter, r *http.Request) {
	now, ok := s.loadReport(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	prev, ok := s.loadReport(w, r, chi.URLParam(r, "previous_id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, compare.Reports(now, prev))
}

// loadReport writes the error response itself and reports whether the caller
// should continue.
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request, id string) (report.Report, bool) {
	rep, found, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("load report failed", zap.String("report_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, apiError{Code: codeInternal, Message: "Failed to load report."})
		return report.Report{}, false
	}
	if !found {
		writeError(w, http.StatusNotFound, apiError{
			Code:    codeNotFound,
			Message: "Report not found.",
			Hint:    "Reports are kept for a short time only; run a new audit.",
		})
		return report.Report{}, false
	}
	return rep, true
}

// clientKey identifies the caller for throttling: the first X-Forwarded-For
// entry, else the remote IP.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return anonymousClient
}

func writeAuditError(w http.ResponseWriter, err error) {
	ae := audit.AsError(err)
	writeError(w, statusFor(ae.Code), apiError{
		Code:    string(ae.Code),
		Message: ae.Message,
		Hint:    ae.Hint,
	})
}
