package daemon

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/enforce"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	smw "git.home.luguber.info/inful/focusd/internal/server/middleware"
)

// HTTPServer manages the admin (command surface, blocked page, metrics) and gateway
// listeners.
type HTTPServer struct {
	adminServer   *http.Server
	gatewayServer *http.Server
	adminAddr     net.Addr
	config        *config.Config
	daemon        *Daemon
	errorAdapter  *ferrors.HTTPErrorAdapter

	mchain func(http.Handler) http.Handler
}

// NewHTTPServer creates a new HTTP server instance with the specified configuration
func NewHTTPServer(cfg *config.Config, daemon *Daemon) *HTTPServer {
	s := &HTTPServer{
		config:       cfg,
		daemon:       daemon,
		errorAdapter: ferrors.NewHTTPErrorAdapter(slog.Default()),
	}
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)
	return s
}

// Start binds every listener before serving any of them, so a port conflict fails the
// whole start instead of leaving a half-running daemon.
func (s *HTTPServer) Start(_ context.Context) error {
	type preBind struct {
		name string
		port int
		ln   net.Listener
	}
	binds := []preBind{{name: "admin", port: s.config.HTTP.AdminPort}}
	if s.config.HTTP.GatewayPort != 0 {
		binds = append(binds, preBind{name: "gateway", port: s.config.HTTP.GatewayPort})
	}

	var bindErrs []error
	for i := range binds {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", binds[i].port))
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s port %d: %w", binds[i].name, binds[i].port, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", stdErrors.Join(bindErrs...))
	}

	s.adminAddr = binds[0].ln.Addr()
	s.adminServer = s.serve("admin", binds[0].ln, s.AdminHandler())
	if len(binds) > 1 {
		blockedURL := fmt.Sprintf("http://%s%s", s.adminAddr, s.config.Focus.RedirectPath)
		gw := enforce.NewGateway(s.daemon.Table(), blockedURL, s.daemon.opts.GatewayTransport)
		s.gatewayServer = s.serve("gateway", binds[1].ln, s.mchain(gw))
	}

	slog.Info("HTTP servers started",
		slog.String("admin_addr", s.adminAddr.String()),
		slog.Int("gateway_port", s.config.HTTP.GatewayPort))
	return nil
}

func (s *HTTPServer) serve(name string, ln net.Listener, h http.Handler) *http.Server {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", slog.String("server", name), logfields.Error(err))
		}
	}()
	return srv
}

// AdminAddr returns the bound admin address (useful when the port was 0).
func (s *HTTPServer) AdminAddr() net.Addr { return s.adminAddr }

// Stop gracefully shuts down all HTTP servers
func (s *HTTPServer) Stop(ctx context.Context) error {
	var errs []error
	if s.gatewayServer != nil {
		if err := s.gatewayServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("gateway server shutdown: %w", err))
		}
	}
	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}
	if len(errs) > 0 {
		return stdErrors.Join(errs...)
	}
	slog.Info("HTTP servers stopped")
	return nil
}

// AdminHandler builds the admin mux.
func (s *HTTPServer) AdminHandler() http.Handler {
	h := &handlers{daemon: s.daemon, errorAdapter: s.errorAdapter}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", h.handleStatus)
	mux.HandleFunc("POST /api/focus", h.handleFocus)
	mux.HandleFunc("POST /api/blocked", h.handleBlocked)
	mux.HandleFunc("GET /api/stats", h.handleStats)
	mux.HandleFunc("POST /api/stats/reset", h.handleReset)
	mux.HandleFunc("POST /api/auth", h.handleAuth)
	mux.HandleFunc("GET /api/rules", h.handleRules)
	mux.HandleFunc("GET /api/history", h.handleHistory)
	mux.HandleFunc("GET /api/sessions", h.handleSessions)
	mux.HandleFunc("GET "+s.config.Focus.RedirectPath, h.handleBlockedPage)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.Handle("GET /metrics", metricsHandler(s.daemon))
	return s.mchain(mux)
}
