package mdplug

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/go-mdplug/internal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HTTP routes
const (
	RouteTransform = "/v1/transform"
	RoutePlugins   = "/v1/plugins"
	RouteReload    = "/v1/plugins/reload"
	RouteHealth    = "/healthz"
	RouteMetrics   = "/metrics"
)

// HTTP error messages
const (
	ErrMsgHTTPBadRequest     = "invalid request body"
	ErrMsgHTTPReloadDisabled = "reload is not configured"
	ErrMsgHTTPReloadFailed   = "reload failed"
	ErrMsgHTTPPreviewFailed  = "preview rendering failed"
)

// MaxRequestBodySize limits a transform request (4MB).
const MaxRequestBodySize = 4 << 20

// ReloadFunc reloads the plugins of a manager from their source.
type ReloadFunc func(ctx context.Context) ([]*LoadReport, error)

// Server exposes a Manager over HTTP.
type Server struct {
	manager     *Manager
	router      *mux.Router
	logger      *zap.Logger
	reload      ReloadFunc
	gatherer    prometheus.Gatherer
	nonBlocking bool
	previewer   *internal.Previewer
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the request logger.
// Default: the manager logger
func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReloadFunc enables POST /v1/plugins/reload.
func WithReloadFunc(fn ReloadFunc) ServerOption {
	return func(s *Server) {
		s.reload = fn
	}
}

// WithMetricsGatherer serves g on /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithNonBlocking answers 503 instead of waiting when the manager is busy.
func WithNonBlocking() ServerOption {
	return func(s *Server) {
		s.nonBlocking = true
	}
}

// TransformRequest is the body of POST /v1/transform.
type TransformRequest struct {
	Input   string `json:"input"`
	Preview bool   `json:"preview,omitempty"`
}

// TransformResponse is the reply of POST /v1/transform.
type TransformResponse struct {
	Output string      `json:"output"`
	Lines  int         `json:"lines"`
	Errors []ErrorInfo `json:"errors"`
	HTML   string      `json:"html,omitempty"`
}

// ErrorInfo is the wire form of one error.
type ErrorInfo struct {
	Message  string `json:"message"`
	Phase    string `json:"phase,omitempty"`
	Plugin   string `json:"plugin,omitempty"`
	Function string `json:"function,omitempty"`
	Line     string `json:"line,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// PluginInfo is the wire form of a loaded plugin.
type PluginInfo struct {
	Name           string   `json:"name"`
	FailOneFailAll bool     `json:"fail_one_fail_all"`
	Functions      []string `json:"functions"`
}

// ReloadResponse is the reply of POST /v1/plugins/reload.
type ReloadResponse struct {
	Plugins []ReportInfo `json:"plugins"`
	Errors  []ErrorInfo  `json:"errors,omitempty"`
}

// ReportInfo is the wire form of a LoadReport.
type ReportInfo struct {
	Plugin  string      `json:"plugin"`
	Loaded  []string    `json:"loaded"`
	Skipped []ErrorInfo `json:"skipped,omitempty"`
}

// NewServer creates an HTTP host for m.
func NewServer(m *Manager, opts ...ServerOption) *Server {
	s := &Server{
		manager:   m,
		router:    mux.NewRouter(),
		logger:    m.logger,
		previewer: internal.NewPreviewer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc(RouteTransform, s.transform).Methods(http.MethodPost)
	s.router.HandleFunc(RoutePlugins, s.listPlugins).Methods(http.MethodGet)
	s.router.HandleFunc(RouteReload, s.reloadPlugins).Methods(http.MethodPost)
	s.router.HandleFunc(RouteHealth, s.health).Methods(http.MethodGet)
	if s.gatherer != nil {
		s.router.Handle(RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) transform(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.fail(w, r, http.StatusBadRequest, ErrMsgHTTPBadRequest, err)
		return
	}

	var result *Result
	if s.nonBlocking {
		var err error
		result, err = s.manager.TryTransform(req.Input)
		if err != nil {
			s.fail(w, r, http.StatusServiceUnavailable, ErrMsgManagerBusy, err)
			return
		}
	} else {
		result = s.manager.Transform(req.Input)
	}

	resp := TransformResponse{
		Output: result.Output,
		Lines:  result.Lines,
		Errors: errorInfos(result.Errors),
	}
	if req.Preview {
		html, err := s.previewer.Fragment(r.Context(), result.Output)
		if err != nil {
			s.fail(w, r, http.StatusInternalServerError, ErrMsgHTTPPreviewFailed, err)
			return
		}
		resp.HTML = html
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listPlugins(w http.ResponseWriter, r *http.Request) {
	plugins := s.manager.Plugins()
	infos := make([]PluginInfo, 0, len(plugins))
	for _, p := range plugins {
		infos = append(infos, PluginInfo{
			Name:           p.Name,
			FailOneFailAll: p.FailOneFailAll,
			Functions:      p.FunctionNames(),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) reloadPlugins(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		s.fail(w, r, http.StatusNotImplemented, ErrMsgHTTPReloadDisabled, nil)
		return
	}

	reports, err := s.reload(r.Context())
	resp := ReloadResponse{Plugins: reportInfos(reports)}
	if err != nil {
		s.logger.Warn(LogMsgHTTPRequestFailed,
			zap.String(LogFieldMethod, r.Method),
			zap.String(LogFieldPath, r.URL.Path),
			zap.Error(err))
		resp.Errors = errorInfos(flatten(err))
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"plugins": len(s.manager.PluginNames()),
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	fields := []zap.Field{
		zap.String(LogFieldMethod, r.Method),
		zap.String(LogFieldPath, r.URL.Path),
		zap.Int(LogFieldStatus, status),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Debug(LogMsgHTTPRequestFailed, fields...)
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// flatten returns the members of an ErrorList, or err alone.
func flatten(err error) []error {
	var list ErrorList
	if errors.As(err, &list) {
		return list
	}
	return []error{err}
}

func errorInfos(errs []error) []ErrorInfo {
	infos := make([]ErrorInfo, 0, len(errs))
	for _, err := range errs {
		infos = append(infos, newErrorInfo(err))
	}
	return infos
}

func newErrorInfo(err error) ErrorInfo {
	info := ErrorInfo{Message: err.Error()}
	info.Phase, _ = ErrorMetadata(err, MetaKeyPhase)
	info.Plugin, _ = ErrorMetadata(err, MetaKeyPlugin)
	info.Function, _ = ErrorMetadata(err, MetaKeyFunction)
	info.Line, _ = ErrorMetadata(err, MetaKeyLine)
	info.Reason, _ = ErrorMetadata(err, MetaKeyReason)
	return info
}

func reportInfos(reports []*LoadReport) []ReportInfo {
	infos := make([]ReportInfo, 0, len(reports))
	for _, r := range reports {
		if r == nil {
			continue
		}
		info := ReportInfo{Plugin: r.Plugin, Loaded: r.Loaded}
		if info.Loaded == nil {
			info.Loaded = []string{}
		}
		for _, sk := range r.Skipped {
			info.Skipped = append(info.Skipped, newErrorInfo(sk.Err))
		}
		infos = append(infos, info)
	}
	return infos
}
