package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/blade"
	"github.com/aretw0/blade/pkg/catalog"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/matcher"
	"github.com/aretw0/blade/pkg/ports"
	"github.com/aretw0/blade/pkg/runner"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

const (
	maxBodySize         = 1 << 20
	defaultSuggestions  = 3
	defaultHistoryLimit = 20
)

// Engine is the engine surface served over HTTP.
type Engine interface {
	ports.Interpreter
	Suggest(ctx context.Context, phrase string, limit int) []matcher.Suggestion
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Server serves the Blade API.
type Server struct {
	Engine  Engine
	History ports.HistoryStore

	spec     *openapi3.T
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	// The host is single-threaded; dispatching requests take turns.
	dispatch sync.Mutex
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHistory serves GET /history from store.
func WithHistory(store ports.HistoryStore) Option {
	return func(s *Server) {
		s.History = store
	}
}

// WithMetrics serves GET /metrics from g instead of the default registry.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

// NewServer builds a Server around engine. It fails when the embedded
// OpenAPI document is invalid.
func NewServer(engine Engine, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, errors.New("http: engine is required")
	}
	spec, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	s := &Server{
		Engine:   engine,
		spec:     spec,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	s, err := NewServer(engine, opts...)
	if err != nil {
		return nil, err
	}
	return s.Routes(), nil
}

// Routes mounts every endpoint on a chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/run", s.Run)
	r.Post("/match", s.Match)
	r.Post("/execute", s.Execute)
	r.Post("/batch", s.Batch)
	r.Get("/intents", s.ListIntents)
	r.Post("/reload", s.Reload)
	r.Get("/history", s.GetHistory)
	r.Get("/events", s.SubscribeEvents)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Blade API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":         "blade-http",
		"version":     strings.TrimSpace(blade.Version),
		"api_version": s.spec.Info.Version,
	})
}

// Run handles the POST /run request.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	body, raw, ok := s.readBody(w, r, "RunRequest")
	if !ok {
		return
	}

	req := domain.NewRunRequest("")
	req.Mode = domain.ModeText
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// Decode the intent weakly so that unknown keys and loose types survive.
	if m, isMap := raw.(map[string]any)["intent"].(map[string]any); isMap {
		in, err := catalog.Decode(m)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid intent: %v", err), http.StatusBadRequest)
			return
		}
		req.Intent = &in
	}
	if req.Intent == nil {
		clean, err := runner.SanitizePhrase(req.Phrase)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid phrase: %v", err), http.StatusBadRequest)
			s.logger.Warn("Run: phrase rejected", "err", err, "size", len(req.Phrase))
			return
		}
		req.Phrase = clean
	}

	s.dispatch.Lock()
	rep := s.Engine.RunDetailed(r.Context(), req)
	s.dispatch.Unlock()

	s.logger.Info("Run", "run_id", rep.RunID, "ok", rep.OK, "reason", rep.Reason)
	s.writeJSON(w, rep)
}

type matchRequest struct {
	Phrase string `json:"phrase"`
	Limit  *int   `json:"limit"`
}

type matchResponse struct {
	Match       domain.MatchResult   `json:"match"`
	Suggestions []matcher.Suggestion `json:"suggestions,omitempty"`
}

// Match handles the POST /match request. Suggestions are only computed for
// phrases that did not match.
func (s *Server) Match(w http.ResponseWriter, r *http.Request) {
	body, _, ok := s.readBody(w, r, "MatchRequest")
	if !ok {
		return
	}
	var req matchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	phrase, err := runner.SanitizePhrase(req.Phrase)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid phrase: %v", err), http.StatusBadRequest)
		return
	}

	resp := matchResponse{Match: s.Engine.Match(r.Context(), phrase)}
	limit := defaultSuggestions
	if req.Limit != nil {
		limit = *req.Limit
	}
	if !resp.Match.Matched() && limit > 0 {
		resp.Suggestions = s.Engine.Suggest(r.Context(), phrase, limit)
	}
	s.writeJSON(w, resp)
}

// Execute handles the POST /execute request.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	_, raw, ok := s.readBody(w, r, "Intent")
	if !ok {
		return
	}
	in, err := catalog.Decode(raw.(map[string]any))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid intent: %v", err), http.StatusBadRequest)
		return
	}

	s.dispatch.Lock()
	res := s.Engine.Execute(r.Context(), in.Standardize())
	s.dispatch.Unlock()

	s.writeJSON(w, res)
}

// Batch handles the POST /batch request.
func (s *Server) Batch(w http.ResponseWriter, r *http.Request) {
	_, raw, ok := s.readBody(w, r, "BatchRequest")
	if !ok {
		return
	}
	obj := raw.(map[string]any)
	items, _ := obj["intents"].([]any)
	stop, _ := obj["stop_on_error"].(bool)
	intents := catalog.DecodeAll(items, s.logger)

	s.dispatch.Lock()
	res := s.Engine.ExecuteBatch(r.Context(), intents, stop)
	s.dispatch.Unlock()

	s.logger.Info("Batch", "total", res.Total, "success", res.Success, "failed", res.Failed)
	s.writeJSON(w, res)
}

// ListIntents handles the GET /intents request.
func (s *Server) ListIntents(w http.ResponseWriter, r *http.Request) {
	intents := s.Engine.Intents(r.Context())
	out := make([]map[string]any, 0, len(intents))
	for _, in := range intents {
		m, err := catalog.Encode(in)
		if err != nil {
			http.Error(w, fmt.Sprintf("Encode error: %v", err), http.StatusInternalServerError)
			s.logger.Error("ListIntents: encode failed", "intent", in.Name, "err", err)
			return
		}
		out = append(out, m)
	}
	s.writeJSON(w, out)
}

// Reload handles the POST /reload request.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	n := s.Engine.Reload(r.Context())
	s.logger.Info("Reload", "count", n)
	s.writeJSON(w, map[string]int{"count": n})
}

// GetHistory handles the GET /history request.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		http.Error(w, "History is not enabled", http.StatusNotFound)
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	recs, err := s.History.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("History error: %v", err), http.StatusInternalServerError)
		s.logger.Error("GetHistory failed", "err", err)
		return
	}
	if recs == nil {
		recs = []domain.EnrichedRecord{}
	}
	s.writeJSON(w, recs)
}

// SubscribeEvents handles the GET /events request (SSE). A "reload" event
// carrying the new intent count is sent whenever the configuration changes.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	events, err := s.Engine.Watch(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrUnsupported) {
			status = http.StatusNotImplemented
		}
		http.Error(w, fmt.Sprintf("Watch error: %v", err), status)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: client subscribed")

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected")
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			n := s.Engine.Reload(r.Context())
			fmt.Fprintf(w, "event: reload\ndata: {\"count\":%d}\n\n", n)
			flusher.Flush()
		}
	}
}

// readBody reads a JSON body and validates it against the named schema of
// the OpenAPI document. It writes the error response itself.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request, schema string) ([]byte, any, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil, nil, false
	}
	if len(body) > maxBodySize {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return nil, nil, false
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return nil, nil, false
	}
	ref, found := s.spec.Components.Schemas[schema]
	if !found || ref.Value == nil {
		http.Error(w, "Unknown schema", http.StatusInternalServerError)
		return nil, nil, false
	}
	if err := ref.Value.VisitJSON(raw); err != nil {
		http.Error(w, fmt.Sprintf("Request does not match %s: %v", schema, err), http.StatusBadRequest)
		s.logger.Warn("Request rejected by schema", "path", r.URL.Path, "schema", schema, "err", err)
		return nil, nil, false
	}
	return body, raw, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
