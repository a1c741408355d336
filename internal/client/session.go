// Package client is the member/staff side of the circulation protocol: a
// Session over one persistent connection and a StatusPoller that notices
// when the server ends the session.
package client

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/errors"
	"circulation/internal/protocol"

	"github.com/gorilla/websocket"
)

// State is the lifecycle stage of a Session.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	default:
		return "closed"
	}
}

const defaultRequestTimeout = 10 * time.Second

// Options configures Dial.
type Options struct {
	// RequestTimeout bounds each Call. Zero means 10s.
	RequestTimeout time.Duration
	Header         http.Header
	Logger         *slog.Logger
}

// Session is one connection to the server. Calls are serialized: at most one
// request is outstanding at a time. A Session moves connecting → active →
// closed and never comes back; reconnecting means a new Dial followed by
// ResumeSession.
type Session struct {
	conn           *websocket.Conn
	requestTimeout time.Duration
	logger         *slog.Logger

	state     atomic.Int32
	seq       atomic.Uint64
	callMu    sync.Mutex
	done      chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	pendingID string
	pending   chan *protocol.Response
	user      *entity.User
	token     string
}

// Dial connects to the server endpoint at url, e.g. ws://host:8080/ws.
func Dial(ctx context.Context, url string, opts Options) (*Session, error) {
	s := &Session{
		requestTimeout: opts.RequestTimeout,
		logger:         opts.Logger,
		done:           make(chan struct{}),
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = defaultRequestTimeout
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.state.Store(int32(StateConnecting))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		s.state.Store(int32(StateClosed))
		close(s.done)

		return nil, errors.Wrapf(ErrDisconnected, "dial %s: %v", url, err)
	}
	s.conn = conn
	s.state.Store(int32(StateActive))

	go s.readLoop()

	return s, nil
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed when the session closes for any reason.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// User returns the account bound by the last LOGIN or RESUME_SESSION.
func (s *Session) User() *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.user
}

// Token returns the session token to resume with after a reconnect.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() error {
	s.shutdown()

	return nil
}

// Call sends req and waits for its response. On success the payload is
// decoded into out when out is not nil.
//
//	ERROR: ErrDisconnected when the connection is closed or breaks
//	ERROR: ErrRequestTimeout when no response arrives in time
//	ERROR: ErrForcedLogout when the server ends the session
//	ERROR: *ResponseError for any other failed response
func (s *Session) Call(ctx context.Context, req protocol.Request, out any) error {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	if s.State() != StateActive {
		return ErrDisconnected
	}

	id := strconv.FormatUint(s.seq.Add(1), 10)
	frame, err := protocol.EncodeRequest(id, req)
	if err != nil {
		return errors.Wrap(err, "failed to encode request")
	}

	ch := make(chan *protocol.Response, 1)
	s.expect(id, ch)
	defer s.expect("", nil)

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.requestTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		s.shutdown()

		return errors.Wrapf(ErrDisconnected, "write %s: %v", req.Verb(), err)
	}

	timer := time.NewTimer(s.requestTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return s.handle(resp, out)
	case <-timer.C:
		return errors.Wrapf(ErrRequestTimeout, "%s got no response within %s", req.Verb(), s.requestTimeout)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.Wrapf(ErrRequestTimeout, "%s", req.Verb())
		}

		return errors.WithStack(ctx.Err())
	case <-s.done:
		return errors.Wrapf(ErrDisconnected, "%s", req.Verb())
	}
}

func (s *Session) handle(resp *protocol.Response, out any) error {
	switch {
	case resp.Command == protocol.VerbForceLogout || resp.Code == domainerrors.ErrForceLogout.ErrorCode():
		s.logger.Warn("Session ended by server", slog.String("message", resp.Message))
		s.shutdown()

		return errors.Wrap(ErrForcedLogout, resp.Message)
	case resp.Code == domainerrors.ErrRequestTimeout.ErrorCode():
		return errors.Wrapf(ErrRequestTimeout, "%s: %s", resp.Command, resp.Message)
	case !resp.Success:
		return &ResponseError{Command: resp.Command, Code: resp.Code, Message: resp.Message}
	case out != nil && len(resp.Payload) > 0:
		return errors.Wrapf(resp.DecodePayload(out), "failed to decode %s payload", resp.Command)
	}

	return nil
}

func (s *Session) expect(id string, ch chan *protocol.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingID = id
	s.pending = ch
}

// readLoop keeps reading so control frames are answered even while no call
// is waiting. Responses nobody waits for are dropped.
func (s *Session) readLoop() {
	defer s.shutdown()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.State() == StateActive {
				s.logger.Debug("Connection read ended", slog.Any("error", err))
			}

			return
		}

		resp, err := protocol.DecodeResponse(data)
		if err != nil {
			s.logger.Warn("Dropping undecodable frame", slog.Any("error", err))

			continue
		}

		s.mu.Lock()
		if s.pending != nil && resp.ID == s.pendingID {
			s.pending <- resp
			s.pending = nil
		} else {
			s.logger.Debug("Dropping stale response", slog.String("id", resp.ID), slog.String("command", string(resp.Command)))
		}
		s.mu.Unlock()
	}
}

func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)

		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = s.conn.Close()
	})
}
