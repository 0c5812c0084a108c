package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10

	shutdownGrace = 5 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     allowLocalOrigin,
}

// inbound is a client message. Type is "invoke", "cancel" or "ping".
type inbound struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Command string          `json:"command,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// outbound is a server message. Type is "result", "accepted", "pong" or
// "error".
type outbound struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	OK       bool   `json:"ok"`
	Payload  string `json:"payload,omitempty"`
	Error    string `json:"error,omitempty"`
	Canceled bool   `json:"canceled,omitempty"`
	Message  string `json:"message,omitempty"`
}

func resultMessage(r Response) outbound {
	return outbound{Type: "result", ID: r.ID, OK: r.OK, Payload: r.Payload, Error: r.Error, Canceled: r.Canceled}
}

// Server relays Dispatcher calls over WebSocket connections.
type Server struct {
	dispatcher *Dispatcher
	logger     *log.Logger
}

// NewServer creates a Server. A nil logger discards output.
func NewServer(d *Dispatcher, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{dispatcher: d, logger: logger}
}

// Handler returns the HTTP routes: /ws for the bridge and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	return mux
}

// ListenAndServe serves on addr until ctx ends, then shuts down. In-flight
// calls are cancelled with their connections.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("bridge listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("bridge shutdown: %w", err)
		}
		s.logger.Info("bridge stopped")
		return nil
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	logger := s.logger.With("remote", r.RemoteAddr)
	logger.Debug("client connected")
	defer logger.Debug("client disconnected")

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		logger.Warn("set read deadline failed", "err", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeCh := make(chan outbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeLoop(ctx, cancel, conn, writeCh, wsPingEvery)
	}()

	// Unblocks ReadJSON when the server shuts down.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	calls := newInflight()
	var wg sync.WaitGroup
	defer func() {
		cancel()
		calls.cancelAll()
		wg.Wait()
		<-writerDone
	}()

	for {
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}

		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "invoke":
			id := strings.TrimSpace(in.ID)
			if id != "" && calls.has(id) {
				push(ctx, writeCh, outbound{Type: "error", ID: id, Message: "duplicate request id"})
				continue
			}
			f := s.dispatcher.Call(ctx, Request{ID: id, Command: in.Command, Args: in.Args})
			calls.add(f)
			push(ctx, writeCh, outbound{Type: "accepted", ID: f.ID()})

			wg.Add(1)
			go func() {
				defer wg.Done()
				<-f.Done()
				calls.remove(f.ID())
				resp, _ := f.Wait(context.Background())
				push(ctx, writeCh, resultMessage(resp))
			}()
		case "cancel":
			if !calls.cancel(strings.TrimSpace(in.ID)) {
				push(ctx, writeCh, outbound{Type: "error", ID: in.ID, Message: "no such request"})
			}
		case "ping":
			push(ctx, writeCh, outbound{Type: "pong"})
		case "":
			push(ctx, writeCh, outbound{Type: "error", Message: "type is required"})
		default:
			push(ctx, writeCh, outbound{Type: "error", Message: "unsupported type: " + in.Type})
		}
	}
}

// wsWriter is the write side of a connection used by writeLoop.
type wsWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v any) error
	WriteMessage(messageType int, data []byte) error
}

// writeLoop is the only writer of conn. Any write failure cancels the
// connection context so readers and pending results stop pushing.
func writeLoop(ctx context.Context, cancel context.CancelFunc, conn wsWriter, writeCh <-chan outbound, pingEvery time.Duration) {
	defer cancel()
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case out := <-writeCh:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(out); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// push queues out for the writer. Results are never dropped while the
// connection is open.
func push(ctx context.Context, writeCh chan<- outbound, out outbound) {
	select {
	case writeCh <- out:
	case <-ctx.Done():
	}
}

// inflight tracks the cancel handles of one connection's running calls.
type inflight struct {
	mu    sync.Mutex
	calls map[string]*Future
}

func newInflight() *inflight {
	return &inflight{calls: make(map[string]*Future)}
}

func (i *inflight) add(f *Future) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls[f.ID()] = f
}

func (i *inflight) has(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.calls[id]
	return ok
}

func (i *inflight) remove(id string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.calls, id)
}

func (i *inflight) cancel(id string) bool {
	i.mu.Lock()
	f, ok := i.calls[id]
	i.mu.Unlock()
	if ok {
		f.Cancel()
	}
	return ok
}

func (i *inflight) cancelAll() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, f := range i.calls {
		f.Cancel()
	}
}

// allowLocalOrigin accepts non-browser clients and pages served from the
// loopback interface or a desktop webview.
func allowLocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme == "tauri" {
		return true
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1", "tauri.localhost":
		return true
	}
	return false
}
