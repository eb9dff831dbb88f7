// Package server exposes the host protocol over a websocket. Each inbound
// JSON message names one operation; the reply carries the typed response
// or an error string. Replies on a connection are sent in request order.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chazu/ellipsoid/pkg/ellipsoid"
	"github.com/chazu/ellipsoid/pkg/host"
	"github.com/chazu/ellipsoid/pkg/intercept"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Extra operations served alongside the host protocol.
const (
	OpNames  = "names"
	OpScript = "script"
)

var (
	// ErrNoRay is returned for an intercept message without a ray.
	ErrNoRay = errors.New("server: intercept needs a ray")
	// ErrBadMessage is returned for a frame that is not a JSON Message.
	ErrBadMessage = errors.New("server: malformed message")
)

// Message is one client request.
type Message struct {
	ID     int                   `json:"id,omitempty"`
	Op     string                `json:"op"`
	Params *ellipsoid.Parameters `json:"params,omitempty"`
	Ray    *intercept.Ray        `json:"ray,omitempty"`
	Script string                `json:"script,omitempty"`
}

// Reply answers one Message.
type Reply struct {
	ID     int    `json:"id,omitempty"`
	Op     string `json:"op"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

// Options configure a Server.
type Options struct {
	// Defaults fill in requests that carry no parameters.
	Defaults     ellipsoid.Parameters
	ReadLimit    int64
	WriteTimeout time.Duration
	// MaxTriangles caps the facets of one object; 0 keeps the provider's.
	MaxTriangles int
	Log          *zap.Logger
}

// Server answers websocket clients with a host.Provider.
type Server struct {
	provider *host.Provider
	opts     Options
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// New returns a Server backed by p.
func New(p *host.Provider, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		provider: p.WithMaxTriangles(opts.MaxTriangles),
		opts:     opts,
		log:      log,
		upgrader: websocket.Upgrader{
			// Local tool; any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes: the websocket endpoint at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ServeHTTP upgrades the connection and serves messages until the client
// goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if s.opts.ReadLimit > 0 {
		conn.SetReadLimit(s.opts.ReadLimit)
	}
	log := s.log.With(zap.String("remote", r.RemoteAddr))
	log.Debug("client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		var reply Reply
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			reply = Reply{Error: fmt.Sprintf("%s: %v", ErrBadMessage, err)}
		} else {
			reply = s.Dispatch(msg)
		}
		if !reply.OK {
			log.Debug("request failed", zap.String("op", msg.Op), zap.String("error", reply.Error))
		}

		if s.opts.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

// Dispatch runs one message and builds its reply.
func (s *Server) Dispatch(msg Message) Reply {
	reply := Reply{ID: msg.ID, Op: msg.Op}
	result, err := s.run(msg)
	if err != nil {
		reply.Error = err.Error()
		return reply
	}
	reply.OK = true
	reply.Result = result
	return reply
}

func (s *Server) run(msg Message) (any, error) {
	switch msg.Op {
	case OpNames:
		names := make([]string, ellipsoid.NumParams+1)
		for i := range names {
			names[i] = ellipsoid.ParamName(i)
		}
		return names, nil
	case OpScript:
		return s.runScript(msg.Script)
	}

	op, err := host.ParseOperation(msg.Op)
	if err != nil {
		return nil, err
	}

	params := s.opts.Defaults
	if msg.Params != nil {
		params = *msg.Params
	}

	var req host.Request
	switch op {
	case host.OpFacetCount:
		req = host.CountRequest{Params: params}
	case host.OpMesh:
		req = host.MeshRequest{Params: params}
	case host.OpIntercept:
		if msg.Ray == nil {
			return nil, ErrNoRay
		}
		req = host.InterceptRequest{Params: params, Ray: *msg.Ray}
	case host.OpCoating:
		req = host.CoatingRequest{Params: params}
	case host.OpDefaults:
		req = host.DefaultsRequest{}
	}
	return s.provider.Handle(req)
}
