package bridge

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, ft *fakeTasks) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(NewDispatcher(ft, nil), nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

// readUntil reads messages until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) outbound {
	t.Helper()
	for {
		var out outbound
		require.NoError(t, conn.ReadJSON(&out))
		if out.Type == typ {
			return out
		}
	}
}

func TestHealthz(t *testing.T) {
	srv := startServer(t, &fakeTasks{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
}

func TestWebSocketInvoke(t *testing.T) {
	srv := startServer(t, &fakeTasks{gpu: "CUDA available"})
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "invoke", "id": "g1", "command": CommandGPU}))

	accepted := readUntil(t, conn, "accepted")
	assert.Equal(t, "g1", accepted.ID)

	result := readUntil(t, conn, "result")
	assert.Equal(t, "g1", result.ID)
	assert.True(t, result.OK)
	assert.Equal(t, "CUDA available", result.Payload)
}

func TestWebSocketCancel(t *testing.T) {
	ft := &fakeTasks{block: true, started: make(chan struct{})}
	srv := startServer(t, ft)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "invoke", "id": "slow", "command": CommandGPU}))
	readUntil(t, conn, "accepted")
	<-ft.started

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "cancel", "id": "slow"}))

	result := readUntil(t, conn, "result")
	assert.Equal(t, "slow", result.ID)
	assert.False(t, result.OK)
	assert.True(t, result.Canceled)
}

func TestWebSocketProtocolErrors(t *testing.T) {
	srv := startServer(t, &fakeTasks{})
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "cancel", "id": "nope"}))
	out := readUntil(t, conn, "error")
	assert.Equal(t, "no such request", out.Message)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "launch"}))
	out = readUntil(t, conn, "error")
	assert.Contains(t, out.Message, "unsupported type")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	readUntil(t, conn, "pong")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := NewServer(NewDispatcher(&fakeTasks{}, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestAllowLocalOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:1420", true},
		{"http://127.0.0.1:5173", true},
		{"tauri://localhost", true},
		{"https://tauri.localhost", true},
		{"http://localhost.example.com", false},
		{"https://example.com", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, allowLocalOrigin(r), tt.origin)
	}
}

// fakeWriter fails SetWriteDeadline after the first deadlineOK calls.
type fakeWriter struct {
	deadlineOK int
	deadlines  int
	written    []outbound
}

func (w *fakeWriter) SetWriteDeadline(time.Time) error {
	w.deadlines++
	if w.deadlines > w.deadlineOK {
		return errors.New("use of closed network connection")
	}
	return nil
}

func (w *fakeWriter) WriteJSON(v any) error {
	w.written = append(w.written, v.(outbound))
	return nil
}

func (w *fakeWriter) WriteMessage(int, []byte) error { return nil }

func TestWriteLoopDeadlineFailureCancelsConnection(t *testing.T) {
	tests := []struct {
		name      string
		pingEvery time.Duration
		queued    int
	}{
		{"failing result write", time.Hour, 2},
		{"failing ping", time.Millisecond, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			writeCh := make(chan outbound, 4)
			for i := 0; i < tt.queued; i++ {
				writeCh <- outbound{Type: "result", ID: "r"}
			}
			w := &fakeWriter{deadlineOK: 1}
			if tt.queued == 0 {
				w.deadlineOK = 0
			}

			done := make(chan struct{})
			go func() {
				defer close(done)
				writeLoop(ctx, cancel, w, writeCh, tt.pingEvery)
			}()

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("writeLoop did not return")
			}
			assert.ErrorIs(t, ctx.Err(), context.Canceled)
		})
	}
}
