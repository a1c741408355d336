package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"circulation/internal/protocol"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// answerFunc answers one request. A nil response sends nothing; ok=false
// closes the connection.
type answerFunc func(env protocol.Envelope) (resp *protocol.Response, ok bool)

func newFakeServer(t *testing.T, answer answerFunc) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env protocol.Envelope
			if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &env); err != nil {
				return
			}

			resp, ok := answer(env)
			if !ok {
				return
			}
			if resp == nil {
				continue
			}
			frame, err := protocol.EncodeResponse(resp)
			if err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialTest(t *testing.T, url string, timeout time.Duration) *Session {
	t.Helper()

	sess, err := Dial(context.Background(), url, Options{
		RequestTimeout: timeout,
		Logger:         newDiscardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	return sess
}

// success runs on the server goroutine, so it cannot fail the test.
func success(env protocol.Envelope, payload any) *protocol.Response {
	resp, err := protocol.Success(env.ID, env.Command, payload)
	if err != nil {
		return protocol.Failure(env.ID, env.Command, "INTERNAL_ERROR", err.Error())
	}

	return resp
}
