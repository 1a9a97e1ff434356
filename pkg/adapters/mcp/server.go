package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/blade"
	"github.com/aretw0/blade/pkg/catalog"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/matcher"
	"github.com/aretw0/blade/pkg/ports"
	"github.com/aretw0/blade/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// IntentsURI is the resource holding the current configuration.
const IntentsURI = "blade://intents"

// Engine defines the interface required by the MCP server to interact with Blade.
type Engine interface {
	ports.Interpreter
	Suggest(ctx context.Context, phrase string, limit int) []matcher.Suggestion
}

// MatchResponse is the structured result of the match_phrase tool.
type MatchResponse struct {
	Match       domain.MatchResult   `json:"match" jsonschema_description:"Best match; intent is absent when nothing scored above the threshold"`
	Suggestions []matcher.Suggestion `json:"suggestions,omitempty" jsonschema_description:"Near misses for unmatched phrases"`
}

// Server wraps the Blade Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger

	// Dispatching tools take turns on the host.
	dispatch sync.Mutex
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("blade-mcp", strings.TrimSpace(blade.Version)),
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type runArgs struct {
	Phrase string `json:"phrase"`
	DryRun bool   `json:"dry_run"`
	Mode   string `json:"mode"`
}

type matchArgs struct {
	Phrase string `json:"phrase"`
	Limit  int    `json:"limit"`
}

func (s *Server) registerTools() {
	// TOOL: run_phrase
	runTool := mcp.NewTool("run_phrase",
		mcp.WithDescription("Resolve a spoken or typed phrase into an intent and execute it in the host."),
		mcp.WithString("phrase", mcp.Required(), mcp.Description("The phrase, e.g. \"ajoute un cube\"")),
		mcp.WithBoolean("dry_run", mcp.Description("Resolve and record without executing")),
		mcp.WithString("mode", mcp.Description("Input mode recorded in history (voice, text, ui). Defaults to text")),
		mcp.WithOutputSchema[domain.RunReport](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunPhrase))

	// TOOL: match_phrase
	matchTool := mcp.NewTool("match_phrase",
		mcp.WithDescription("Match a phrase against the configured intents without executing anything."),
		mcp.WithString("phrase", mcp.Required(), mcp.Description("The phrase to match")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of suggestions for unmatched phrases")),
		mcp.WithOutputSchema[MatchResponse](),
	)
	s.mcpServer.AddTool(matchTool, mcp.NewStructuredToolHandler(s.handleMatchPhrase))

	// TOOL: list_intents
	s.mcpServer.AddTool(mcp.NewTool("list_intents",
		mcp.WithDescription("List the configured intents."),
	), s.handleListIntents)

	// TOOL: reload_intents
	s.mcpServer.AddTool(mcp.NewTool("reload_intents",
		mcp.WithDescription("Force a reload of the intent configuration."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n := s.engine.Reload(ctx)
		return mcp.NewToolResultText(fmt.Sprintf("%d intents loaded", n)), nil
	})
}

func (s *Server) handleRunPhrase(ctx context.Context, request mcp.CallToolRequest, args runArgs) (domain.RunReport, error) {
	clean, err := runner.SanitizePhrase(args.Phrase)
	if err != nil {
		s.logger.Warn("MCP run_phrase: phrase rejected", "err", err, "size", len(args.Phrase))
		return domain.RunReport{}, fmt.Errorf("phrase rejected: %w", err)
	}

	req := domain.NewRunRequest(clean)
	req.Mode = domain.ModeText
	if args.Mode != "" {
		req.Mode = args.Mode
	}
	req.DryRun = args.DryRun

	s.dispatch.Lock()
	defer s.dispatch.Unlock()
	rep := s.engine.RunDetailed(ctx, req)
	s.logger.Info("MCP run_phrase", "run_id", rep.RunID, "ok", rep.OK, "reason", rep.Reason)
	return rep, nil
}

func (s *Server) handleMatchPhrase(ctx context.Context, request mcp.CallToolRequest, args matchArgs) (MatchResponse, error) {
	clean, err := runner.SanitizePhrase(args.Phrase)
	if err != nil {
		return MatchResponse{}, fmt.Errorf("phrase rejected: %w", err)
	}
	resp := MatchResponse{Match: s.engine.Match(ctx, clean)}
	if !resp.Match.Matched() && args.Limit > 0 {
		resp.Suggestions = s.engine.Suggest(ctx, clean, args.Limit)
	}
	return resp, nil
}

func (s *Server) handleListIntents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := s.intentsJSON(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) registerResources() {
	// EXPOSE: blade://intents
	s.mcpServer.AddResource(mcp.NewResource(IntentsURI, "Intent Configuration",
		mcp.WithResourceDescription("The configured intents, in configuration order"),
		mcp.WithMIMEType("application/json"),
	), s.readIntents)
}

func (s *Server) readIntents(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := s.intentsJSON(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode intents: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      IntentsURI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}

func (s *Server) intentsJSON(ctx context.Context) (string, error) {
	intents := s.engine.Intents(ctx)
	out := make([]map[string]any, 0, len(intents))
	for _, in := range intents {
		m, err := catalog.Encode(in)
		if err != nil {
			return "", err
		}
		out = append(out, m)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
