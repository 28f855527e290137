package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"julesmcp/auth"
	loggerv2 "julesmcp/logger/v2"
	"julesmcp/tools"
)

// HealthPath is served alongside the MCP endpoint.
const HealthPath = "/health"

// Server is the HTTP server hosting the MCP endpoint.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	addr       string
	endpoint   string
	logger     loggerv2.Logger
}

// Config holds server configuration
type Config struct {
	Name         string
	Version      string
	Addr         string
	EndpointPath string
	Stateless    bool
	Registry     *tools.Registry
	Logger       loggerv2.Logger
}

// NewServer builds the MCP server and its HTTP handler. It does not listen
// until Start is called.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("mcpserver: registry is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = loggerv2.NewDefault()
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/sse"
	}

	mcpServer := server.NewMCPServer(cfg.Name, cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	mcpServer.AddTools(cfg.Registry.ServerTools()...)

	streamable := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath(cfg.EndpointPath),
		server.WithHTTPContextFunc(auth.HTTPContextFunc),
		server.WithStateLess(cfg.Stateless),
		server.WithLogger(loggerv2.ToUtilLogger(logger)),
	)

	mux := http.NewServeMux()
	mux.Handle(cfg.EndpointPath, streamable)
	mux.HandleFunc(HealthPath, handleHealth)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		handler:  mux,
		addr:     cfg.Addr,
		endpoint: cfg.EndpointPath,
		logger:   logger,
	}, nil
}

// Handler returns the HTTP handler serving the MCP endpoint and /health.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and blocks until the server
// stops. It returns nil after a clean Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("MCP server listening",
		loggerv2.String("addr", ln.Addr().String()),
		loggerv2.String("endpoint", s.endpoint),
	)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight calls until
// ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down MCP server")
	return s.httpServer.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "✓ Ok")
}
