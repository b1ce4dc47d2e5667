// Package gateway bridges viewer clients to a session over WebSocket.
//
// # Overview
//
// A viewer connects, sends an init request, then drives scrolling with
// loadNext/loadPrev. Every scroll command answers with the full window
// snapshot; audio payloads travel separately through blob requests so the
// entity stream stays light. A blob request for a released handle answers
// blob_missing rather than an error, since eviction of old audio is normal
// operation.
package gateway

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/WeiyueSUN/packlens-audio-preview/blobstore"
	"github.com/WeiyueSUN/packlens-audio-preview/session"
)

const (
	writeTimeout = 10 * time.Second

	// maxRequestBytes bounds a single viewer command frame.
	maxRequestBytes = 64 * 1024
)

// Gateway exposes one session to WebSocket viewers.
type Gateway struct {
	sess   *session.Session
	logger *slog.Logger

	upgrader websocket.Upgrader

	requestsTotal  atomic.Uint64
	requestsFailed atomic.Uint64
	blobBytesSent  atomic.Uint64
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithCheckOrigin overrides the upgrade origin check. The default accepts
// all origins, which suits the local-viewer deployment this serves.
func WithCheckOrigin(check func(*http.Request) bool) Option {
	return func(g *Gateway) {
		g.upgrader.CheckOrigin = check
	}
}

// New creates a gateway serving the given session.
func New(sess *session.Session, options ...Option) *Gateway {
	g := &Gateway{
		sess:   sess,
		logger: slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// RegisterHTTPHandlers mounts the gateway's WebSocket endpoint on mux.
func (g *Gateway) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	mux.HandleFunc(prefix, g.ServeWS)
}

// Handler returns a standalone mux serving the viewer endpoint at /viewer.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	g.RegisterHTTPHandlers("/viewer", mux)
	return mux
}

// ServeWS upgrades the connection and runs the viewer command loop until
// the client disconnects.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxRequestBytes)
	g.logger.Info("viewer connected", "remote", r.RemoteAddr)

	// Serializes writes: command replies and any future pushes share the
	// connection.
	var writeMu sync.Mutex
	send := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteJSON(v)
	}

	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.logger.Warn("viewer connection error", "remote", r.RemoteAddr, "error", err)
			} else {
				g.logger.Info("viewer disconnected", "remote", r.RemoteAddr)
			}
			return
		}

		g.requestsTotal.Add(1)
		if err := g.dispatch(r, send, req); err != nil {
			g.logger.Warn("response write failed", "remote", r.RemoteAddr, "error", err)
			return
		}
	}
}

// dispatch handles one viewer command. The returned error is a transport
// write failure; command-level failures answer with an error response and
// keep the connection alive.
func (g *Gateway) dispatch(r *http.Request, send func(any) error, req request) error {
	ctx := r.Context()

	switch req.Type {
	case RequestInit:
		if err := g.sess.Open(ctx); err != nil {
			return g.sendError(send, req.ID, err)
		}
		return g.sendWindow(send, req.ID)

	case RequestLoadNext:
		if err := g.sess.LoadNext(ctx); err != nil {
			return g.sendError(send, req.ID, err)
		}
		return g.sendWindow(send, req.ID)

	case RequestLoadPrev:
		if err := g.sess.LoadPrevious(ctx); err != nil {
			return g.sendError(send, req.ID, err)
		}
		return g.sendWindow(send, req.ID)

	case RequestBlob:
		return g.sendBlob(send, req)

	case RequestStats:
		return send(statsResponse{Type: ResponseStats, ID: req.ID, Stats: g.sess.Stats()})

	default:
		g.requestsFailed.Add(1)
		return send(errorResponse{Type: ResponseError, ID: req.ID,
			Message: "unknown request type: " + req.Type})
	}
}

func (g *Gateway) sendWindow(send func(any) error, id string) error {
	win := g.sess.Window()
	return send(windowResponse{
		Type:            ResponseWindow,
		ID:              id,
		MinPage:         win.MinPage(),
		MaxPage:         win.MaxPage(),
		MinIndex:        win.MinIndex(),
		MaxIndex:        win.MaxIndex(),
		HasNextPage:     win.HasNextPage(),
		HasPreviousPage: win.HasPreviousPage(),
		Entities:        renderEntities(win.Entities()),
	})
}

func (g *Gateway) sendBlob(send func(any) error, req request) error {
	entry, ok := g.sess.Blob(blobstore.Handle(req.Handle))
	if !ok {
		return send(blobMissingResponse{Type: ResponseBlobMissing, ID: req.ID, Handle: req.Handle})
	}

	g.blobBytesSent.Add(uint64(len(entry.Bytes)))
	return send(blobResponse{
		Type:   ResponseBlob,
		ID:     req.ID,
		Handle: req.Handle,
		Kind:   entry.MIMEKind,
		Data:   entry.Bytes,
	})
}

func (g *Gateway) sendError(send func(any) error, id string, err error) error {
	g.requestsFailed.Add(1)
	return send(errorResponse{Type: ResponseError, ID: id, Message: err.Error()})
}

// RequestsTotal returns how many viewer commands were received.
func (g *Gateway) RequestsTotal() uint64 { return g.requestsTotal.Load() }

// RequestsFailed returns how many viewer commands failed.
func (g *Gateway) RequestsFailed() uint64 { return g.requestsFailed.Load() }

// BlobBytesSent returns the total payload bytes shipped to viewers.
func (g *Gateway) BlobBytesSent() uint64 { return g.blobBytesSent.Load() }
