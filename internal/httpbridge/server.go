package httpbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/marlonsc/mcb/internal/mcberrors"
	"github.com/marlonsc/mcb/internal/mcptools"
)

// Config holds the bridge's listen address.
type Config struct {
	Host string
	Port int
}

// Server is the JSON-RPC-over-HTTP transport for mcptools. It never
// touches the stdio *mcp.Server: it dispatches directly to the same
// *mcptools.Tools instance so both transports share one set of
// business logic.
type Server struct {
	echo   *echo.Echo
	tools  *mcptools.Tools
	logger *zap.Logger
	config *Config
}

// NewServer builds the bridge over tools, matching internal/http.NewServer's
// echo setup (recover, request-id, structured request logging, promhttp).
func NewServer(tools *mcptools.Tools, logger *zap.Logger, cfg *Config) (*Server, error) {
	if tools == nil {
		return nil, fmt.Errorf("tools cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 9091}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http bridge request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{echo: e, tools: tools, logger: logger, config: cfg}
	s.registerRoutes()
	return s, nil
}

// Handler exposes the bridge as a plain http.Handler, for tests and
// for embedding behind another process's listener.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealthz)
	s.echo.GET("/readyz", s.handleReadyz)
	s.echo.POST("/mcp", s.handleMCP)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleReadyz(c echo.Context) error {
	if s.tools == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "tools not configured")
	}
	return c.String(http.StatusOK, "OK")
}

// handleMCP is the single JSON-RPC 2.0 endpoint: initialize, tools/list,
// tools/call, and ping, matching the original bridge's method dispatch.
func (s *Server) handleMCP(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, errorResponse(nil, codeInvalidParams, "invalid request body"))
	}

	provenance := extractHeaderProvenance(c.Request().Header)

	var resp Response
	switch req.Method {
	case "initialize":
		resp = successResponse(req.ID, map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "mcb-http-bridge", "version": "1.0.0"},
		})
	case "tools/list":
		resp = successResponse(req.ID, map[string]any{"tools": toolNames()})
	case "tools/call":
		resp = s.handleToolsCall(c.Request().Context(), req, provenance)
	case "ping":
		resp = successResponse(req.ID, map[string]any{})
	default:
		resp = errorResponse(req.ID, codeMethodNotFound, "unknown method: "+req.Method)
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleToolsCall(ctx context.Context, req Request, provenance headerProvenance) Response {
	if !provenance.hasWorkspaceProvenance() {
		return errorResponse(req.ID, codeInvalidParams,
			"tools/call over HTTP requires X-Workspace-Root or X-Repo-Path provenance headers")
	}

	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid params for tools/call")
	}
	if params.Name == "" {
		return errorResponse(req.ID, codeInvalidParams, "missing 'name' parameter for tools/call")
	}

	handler, ok := registry[params.Name]
	if !ok {
		return errorResponse(req.ID, codeMethodNotFound, "unknown tool: "+params.Name)
	}

	args, err := mergeHeaderFields(params.Arguments, provenance.asFields())
	if err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid arguments: "+err.Error())
	}

	result, err := handler(ctx, s.tools, args)
	if err != nil {
		s.logger.Warn("tool call failed", zap.String("tool", params.Name), zap.Error(err))
		code := codeInternalError
		if mcberrors.KindOf(err) == mcberrors.KindInvalidParams {
			code = codeInvalidParams
		}
		return errorResponse(req.ID, code, err.Error())
	}

	return successResponse(req.ID, map[string]any{
		"content": []map[string]any{{"type": "text", "text": fmt.Sprintf("%v", result)}},
		"isError": false,
		"data":    result,
	})
}

// Start starts the bridge, blocking until it stops or errors.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http bridge", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the bridge.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http bridge")
	return s.echo.Shutdown(ctx)
}
