package ws

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"circulation/config"
	"circulation/internal/delivery"
	"circulation/internal/delivery/middleware"
	"circulation/internal/domain/lifecycle"
	"circulation/internal/errors"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
)

// Route paths served by the endpoint.
const (
	PathConnect = "/ws"
	PathHealth  = "/health"
)

type wsServer struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *echo.Echo
	handler *ConnectionHandler
}

// ServerParams holds dependencies for the connection endpoint, injected by Fx.
type ServerParams struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     *config.Config
	Logger  *slog.Logger
	Handler *ConnectionHandler
}

// NewServer creates the connection endpoint and registers its shutdown hook.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	srv := &wsServer{
		cfg:     params.Cfg,
		logger:  params.Logger,
		server:  NewEcho(params.Cfg, params.Logger, params.Handler),
		handler: params.Handler,
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// NewEcho builds the HTTP router: a health probe and the upgrade route.
func NewEcho(cfg *config.Config, logger *slog.Logger, handler *ConnectionHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout
	e.Server.IdleTimeout = cfg.HTTP.Timeouts.IdleTimeout

	e.Use(echomiddleware.Recover())

	requestIDMiddleware := middleware.NewRequestIDMiddleware(logger)
	e.Use(requestIDMiddleware.Process)

	loggerMiddleware := middleware.NewLoggerMiddleware(logger, cfg)
	e.Use(loggerMiddleware.Handle)

	e.GET(PathHealth, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":      "ok",
			"connections": handler.Connections(),
		})
	})
	e.GET(PathConnect, handler.Handle)

	return e
}

func (s *wsServer) Serve(ctx context.Context) error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.HTTP.Port))
	s.logger.Info("Starting circulation server", slog.String("host_port", hostPort))
	if err := s.server.Start(hostPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}

	return nil
}

func (s *wsServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down circulation server", slog.Int("connections", s.handler.Connections()))

	// hijacked connections are invisible to Shutdown
	s.handler.CloseAll()

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
