package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"circulation/config"
	deliverycontext "circulation/internal/delivery/context"
	"circulation/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const writeWait = 10 * time.Second

// ConnectionHandlerParams holds dependencies for ConnectionHandler, injected by Fx.
type ConnectionHandlerParams struct {
	fx.In

	Cfg        *config.Config
	Logger     *slog.Logger
	Dispatcher *Dispatcher
}

// ConnectionHandler upgrades HTTP requests to persistent connections and
// serves each one on its own goroutine, one request at a time.
type ConnectionHandler struct {
	upgrader        websocket.Upgrader
	decoder         *protocol.Decoder
	dispatcher      *Dispatcher
	logger          *slog.Logger
	requestTimeout  time.Duration
	pongWait        time.Duration
	maxMessageBytes int64

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

// NewConnectionHandler creates a ConnectionHandler.
func NewConnectionHandler(params ConnectionHandlerParams) *ConnectionHandler {
	if params.Cfg.Protocol == nil || params.Cfg.Protocol.RequestTimeout <= 0 {
		params.Cfg.ApplyDefaults()
	}
	protocolCfg := params.Cfg.Protocol

	return &ConnectionHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		decoder:         protocol.NewDecoder(),
		dispatcher:      params.Dispatcher,
		logger:          params.Logger,
		requestTimeout:  protocolCfg.RequestTimeout,
		pongWait:        protocolCfg.PongWait,
		maxMessageBytes: protocolCfg.MaxMessageBytes,
		conns:           make(map[*websocket.Conn]struct{}),
	}
}

// Handle upgrades the request and serves the connection until it closes.
func (h *ConnectionHandler) Handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already answered with an HTTP error
		return nil
	}
	if !h.track(conn) {
		_ = conn.Close()

		return nil
	}
	defer h.untrack(conn)

	connectionID := uuid.New().String()
	logger := deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).
		With(slog.String("connection_id", connectionID))

	ctx := context.WithoutCancel(c.Request().Context())
	ctx = deliverycontext.WithConnectionID(ctx, connectionID)
	ctx = deliverycontext.WithLogger(ctx, logger)

	h.serve(ctx, conn, logger)

	return nil
}

// Connections returns the number of open connections.
func (h *ConnectionHandler) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.conns)
}

// CloseAll closes every open connection and refuses new ones.
func (h *ConnectionHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for conn := range h.conns {
		_ = conn.Close()
	}
}

func (h *ConnectionHandler) track(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}

	return true
}

func (h *ConnectionHandler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, conn)
}

func (h *ConnectionHandler) serve(ctx context.Context, conn *websocket.Conn, logger *slog.Logger) {
	defer conn.Close()

	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}
	stopKeepAlive := h.keepAlive(conn, logger)
	defer stopKeepAlive()

	logger.Info("Connection opened")

	sess := &Session{}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Connection read failed", slog.Any("error", err))
			}

			break
		}
		h.extendReadDeadline(conn)

		resp := h.process(ctx, sess, data)
		frame, err := protocol.EncodeResponse(resp)
		if err != nil {
			logger.Error("Failed to encode response", slog.Any("error", err))

			break
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			logger.Warn("Connection write failed", slog.Any("error", err))

			break
		}
	}

	logger.Info("Connection closed", slog.Bool("authenticated", sess.Authenticated()))
}

// process decodes and answers one frame under the request deadline.
func (h *ConnectionHandler) process(ctx context.Context, sess *Session, data []byte) *protocol.Response {
	requestID := uuid.New().String()
	logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger).With(slog.String("request_id", requestID))

	env, req, err := h.decoder.Decode(data)
	if err != nil {
		return failure(ctx, logger, env.ID, env.Command, err)
	}

	logger = logger.With(slog.String("message_id", env.ID), slog.String("command", string(env.Command)))
	if sess.Authenticated() {
		logger = logger.With(
			slog.String("session_id", sess.ID()),
			slog.Int64("user_id", sess.Principal().UserID),
		)
	}

	reqCtx, cancel := context.WithTimeout(ctx, h.requestTimeout)
	defer cancel()
	reqCtx = deliverycontext.WithRequestID(reqCtx, requestID)
	reqCtx = deliverycontext.WithLogger(reqCtx, logger)

	start := time.Now()
	resp := h.dispatcher.Handle(reqCtx, sess, env, req)
	logger.Debug("Request handled",
		slog.Bool("success", resp.Success),
		slog.String("code", resp.Code),
		slog.Duration("latency", time.Since(start)),
	)

	return resp
}

// keepAlive pings the peer so an idle but healthy connection keeps its read
// deadline moving. It returns a function that stops the pinger.
func (h *ConnectionHandler) keepAlive(conn *websocket.Conn, logger *slog.Logger) func() {
	if h.pongWait <= 0 {
		return func() {}
	}

	h.extendReadDeadline(conn)
	conn.SetPongHandler(func(string) error {
		h.extendReadDeadline(conn)

		return nil
	})

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(h.pongWait * 9 / 10)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					logger.Debug("Ping failed", slog.Any("error", err))

					return
				}
			}
		}
	}()

	return func() { close(done) }
}

func (h *ConnectionHandler) extendReadDeadline(conn *websocket.Conn) {
	if h.pongWait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	}
}
