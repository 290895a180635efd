package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"runlevelctl/internal/orchestrator"
	"runlevelctl/pkg/logging"

	"github.com/mark3labs/mcp-go/server"
	"github.com/patrickmn/go-cache"
)

const (
	serverName    = "runlevelctl"
	serverVersion = "1.0.0"

	// transitionTTL is how long a transition stays addressable by ID.
	transitionTTL = 30 * time.Minute
)

// Controller is the part of an orchestrator the tools drive.
type Controller interface {
	State() orchestrator.State
	ProceedTo(ctx context.Context, level int) (*orchestrator.Transition, error)
	Recorders() []int
	Recorder(level int) (*orchestrator.Recorder, bool)
	WaitIdle(ctx context.Context) error
}

var _ Controller = (*orchestrator.Orchestrator)(nil)

// Config defines where the server listens and how long tools wait.
type Config struct {
	Host string
	Port int
	// WaitTimeout bounds runlevel_wait and runlevel_proceed with wait=true
	// when the caller does not pass a timeout.
	WaitTimeout time.Duration
	// MaxLevel is the highest level runlevel_proceed accepts. Zero means
	// DefaultMaxLevel.
	MaxLevel int
}

// DefaultMaxLevel bounds runlevel_proceed when Config.MaxLevel is not set.
const DefaultMaxLevel = 99

// Server serves the run-level tools over SSE.
type Server struct {
	config      Config
	controller  Controller
	transitions *cache.Cache

	mu        sync.Mutex
	mcpServer *server.MCPServer
	sseServer *server.SSEServer
}

// NewServer creates a server for controller. Call Start to listen.
func NewServer(config Config, controller Controller) *Server {
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 8090
	}
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = time.Minute
	}
	if config.MaxLevel <= 0 {
		config.MaxLevel = DefaultMaxLevel
	}
	return &Server{
		config:      config,
		controller:  controller,
		transitions: cache.New(transitionTTL, 2*transitionTTL),
	}
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// MCPServer builds the MCP server with every tool registered. It does not listen.
func (s *Server) MCPServer() *server.MCPServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mcpServer == nil {
		s.mcpServer = server.NewMCPServer(
			serverName,
			serverVersion,
			server.WithToolCapabilities(false),
		)
		s.mcpServer.AddTools(s.Tools()...)
	}
	return s.mcpServer
}

// Start begins serving SSE in the background.
func (s *Server) Start(ctx context.Context) error {
	mcpServer := s.MCPServer()

	s.mu.Lock()
	if s.sseServer != nil {
		s.mu.Unlock()
		return fmt.Errorf("MCP server already started")
	}
	baseURL := fmt.Sprintf("http://%s", s.Addr())
	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithBaseURL(baseURL),
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/message"),
		server.WithKeepAlive(true),
		server.WithKeepAliveInterval(30*time.Second),
	)
	s.sseServer = sseServer
	s.mu.Unlock()

	addr := s.Addr()
	logging.Info("MCP", "Starting MCP server on %s (SSE endpoint %s/sse)", addr, baseURL)
	go func() {
		if err := sseServer.Start(addr); err != nil && err != http.ErrServerClosed {
			logging.Error("MCP", err, "SSE server error")
		}
	}()
	return nil
}

// Stop shuts the SSE server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	sseServer := s.sseServer
	s.sseServer = nil
	s.mu.Unlock()
	if sseServer == nil {
		return fmt.Errorf("MCP server not started")
	}

	logging.Info("MCP", "Stopping MCP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down SSE server: %w", err)
	}
	return nil
}

func (s *Server) remember(t *orchestrator.Transition) {
	s.transitions.Set(t.ID(), t, cache.DefaultExpiration)
}

func (s *Server) lookup(id string) (*orchestrator.Transition, bool) {
	v, ok := s.transitions.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*orchestrator.Transition), true
}
