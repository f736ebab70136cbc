package wsrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingInput struct {
	Value int `json:"value"`
}

func serve(t *testing.T, r *WSRouter) (*websocket.Conn, <-chan error) {
	t.Helper()

	done := make(chan error, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		done <- r.ServeConn(context.Background(), conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn, done
}

func TestServeConnRoutesTypedPayloads(t *testing.T) {
	r := New()

	got := make(chan string, 4)
	r.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, payload any) error {
			got <- "mw:" + GetMessageTypeFromCtx(ctx)
			return next(ctx, conn, payload)
		}
	})
	Handle(r, "PING", func(_ context.Context, _ *websocket.Conn, in pingInput) error {
		if in.Value == 42 {
			got <- "ping"
		}
		return nil
	})

	conn, _ := serve(t, r)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "PING", "payload": map[string]any{"value": 42}}))

	assert.Equal(t, "mw:PING", <-got)
	assert.Equal(t, "ping", <-got)
}

func TestServeConnErrors(t *testing.T) {
	r := New()

	errs := make(chan error, 4)
	r.OnError(func(_ context.Context, _ *websocket.Conn, err error) error {
		errs <- err
		if errors.Is(err, ErrUnknownMessageType) {
			return nil
		}
		return err
	})
	boom := errors.New("boom")
	Handle(r, "FAIL", func(context.Context, *websocket.Conn, struct{}) error {
		return boom
	})

	conn, done := serve(t, r)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "NOPE"}))
	assert.ErrorIs(t, <-errs, ErrUnknownMessageType)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "FAIL"}))
	assert.ErrorIs(t, <-errs, boom)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("ServeConn did not stop")
	}
}

func TestMessageTypeMissing(t *testing.T) {
	assert.Equal(t, "", GetMessageTypeFromCtx(context.Background()))
}
