package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"circulation/config"
	"circulation/internal/domain/entity"
	"circulation/internal/domain/fine"
	"circulation/internal/infra/auth"
	"circulation/internal/infra/clock"
	"circulation/internal/infra/persistence/gormstore"
	"circulation/internal/infra/qrcode"
	"circulation/internal/protocol"
	"circulation/internal/usecase"
	"circulation/internal/usecase/impl"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testStart = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	cfg        *config.Config
	clock      *clock.Fixed
	accounts   usecase.AccountUsecase
	catalog    usecase.CatalogUsecase
	dispatcher *Dispatcher
	handler    *ConnectionHandler
	server     *httptest.Server
	admin      entity.Principal
}

func newTestEnv(t *testing.T, requestTimeout time.Duration) *testEnv {
	t.Helper()

	logger := newDiscardLogger()
	db, err := gormstore.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		Protocol: &config.ProtocolConfig{
			RequestTimeout:  requestTimeout,
			MaxMessageBytes: 1 << 20,
			PongWait:        time.Minute,
		},
		Bootstrap: &config.BootstrapConfig{AdminUsername: "admin", AdminEmail: "admin@library.test", AdminPassword: "admin-pass"},
	}
	cfg.SecretKey.Session = "test-session-secret"

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	txManager := gormstore.NewTransactionManager(db)
	hasher := auth.NewBcryptHasherWithCost(bcrypt.MinCost)
	calc := fine.NewCalculator(time.UTC)
	fixed := clock.NewFixed(testStart)

	env := &testEnv{cfg: cfg, clock: fixed}
	authSvc := impl.NewAuthService(impl.AuthServiceParams{TxManager: txManager, Hasher: hasher, TokenService: tokens, Config: cfg, Logger: logger})
	env.accounts = impl.NewAccountService(impl.AccountServiceParams{TxManager: txManager, Hasher: hasher, Logger: logger})
	env.catalog = impl.NewCatalogService(impl.CatalogServiceParams{
		TxManager:    txManager,
		LabelService: qrcode.NewQRLabelService(128, "M", "library://copies/"),
		Logger:       logger,
	})

	circulationSvc := impl.NewCirculationService(impl.CirculationServiceParams{TxManager: txManager, Calc: calc, Clock: fixed, Logger: logger})
	reportSvc := impl.NewReportService(impl.ReportServiceParams{TxManager: txManager, Calc: calc, Clock: fixed, Logger: logger})
	settingsSvc := impl.NewSettingsService(impl.SettingsServiceParams{TxManager: txManager, Logger: logger})
	notificationSvc := impl.NewNotificationService(impl.NotificationServiceParams{TxManager: txManager, Clock: fixed, Logger: logger})

	env.dispatcher = NewDispatcher(DispatcherParams{
		Auth:          authSvc,
		Accounts:      env.accounts,
		Catalog:       env.catalog,
		Circulation:   circulationSvc,
		Reports:       reportSvc,
		Settings:      settingsSvc,
		Notifications: notificationSvc,
		Logger:        logger,
	})
	env.handler = NewConnectionHandler(ConnectionHandlerParams{Cfg: cfg, Logger: logger, Dispatcher: env.dispatcher})

	env.server = httptest.NewServer(NewEcho(cfg, logger, env.handler))
	t.Cleanup(func() {
		env.handler.CloseAll()
		env.server.Close()
	})

	require.NoError(t, authSvc.EnsureAdmin(context.Background()))
	admin, err := authSvc.Login(context.Background(), usecase.LoginInput{Username: "admin", Password: "admin-pass"})
	require.NoError(t, err)
	env.admin = entity.Principal{UserID: admin.User.ID, Role: entity.RoleAdmin}

	return env
}

func (e *testEnv) member(t *testing.T, username string) *entity.User {
	t.Helper()

	user, err := e.accounts.CreateUser(context.Background(), usecase.CreateUserInput{
		Username: username,
		Email:    username + "@library.test",
		Password: "secret-" + username,
	})
	require.NoError(t, err)

	return user
}

func (e *testEnv) book(t *testing.T, title string, copies int) *entity.Book {
	t.Helper()

	book, err := e.catalog.AddBook(context.Background(), usecase.AddBookInput{
		BookInput:     usecase.BookInput{Title: title, Author: "Author", Category: "General"},
		InitialCopies: copies,
	})
	require.NoError(t, err)

	return book
}

// testConn is a raw protocol client over one connection.
type testConn struct {
	t    *testing.T
	conn *websocket.Conn
	seq  atomic.Int64
}

func (e *testEnv) dial(t *testing.T) *testConn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + PathConnect
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testConn{t: t, conn: conn}
}

func (c *testConn) send(req protocol.Request) *protocol.Response {
	c.t.Helper()

	frame, err := protocol.EncodeRequest(strconv.FormatInt(c.seq.Add(1), 10), req)
	require.NoError(c.t, err)

	return c.sendRaw(frame)
}

func (c *testConn) sendRaw(frame []byte) *protocol.Response {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, frame))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)

	resp, err := protocol.DecodeResponse(data)
	require.NoError(c.t, err)

	return resp
}

func (c *testConn) login(username, password string) *protocol.SessionPayload {
	c.t.Helper()

	resp := c.send(&protocol.LoginRequest{Username: username, Password: password})
	require.Truef(c.t, resp.Success, "login failed: %s %s", resp.Code, resp.Message)

	var payload protocol.SessionPayload
	require.NoError(c.t, resp.DecodePayload(&payload))

	return &payload
}
