package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RoomStore is the part of the conversation store the HTTP routes need.
type RoomStore interface {
	RoomRegistry
	Len() int
}

type routes struct {
	port      int
	publicDir string
	issuer    TokenIssuer
	now       func() time.Time
	logger    *slog.Logger
}

type RouteOption func(*routes)

// WithPort sets the port reported by the root route.
func WithPort(port int) RouteOption {
	return func(r *routes) { r.port = port }
}

func WithPublicDir(dir string) RouteOption {
	return func(r *routes) { r.publicDir = dir }
}

func WithTokenIssuer(issuer TokenIssuer) RouteOption {
	return func(r *routes) { r.issuer = issuer }
}

func WithClock(now func() time.Time) RouteOption {
	return func(r *routes) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLogger(l *slog.Logger) RouteOption {
	return func(r *routes) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewHandler builds the HTTP surface of the relay: the websocket endpoint,
// the token and health routes and the static client.
func NewHandler(server *Server, store RoomStore, opts ...RouteOption) http.Handler {
	rt := &routes{
		publicDir: "public",
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(rt)
	}

	r := mux.NewRouter()
	r.Handle("/ws", server)
	r.HandleFunc("/", rt.root(server)).Methods(http.MethodGet)
	r.HandleFunc("/get-token", tokenHandler(rt.issuer, store, rt.now, rt.logger)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthHandler(store)).Methods(http.MethodGet)
	r.HandleFunc("/protocol/schema", schemaHandler()).Methods(http.MethodGet)

	static := http.FileServer(http.Dir(rt.publicDir))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", static)).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(static).Methods(http.MethodGet)

	var h http.Handler = r
	h = loggingMiddleware(rt.logger)(h)
	h = corsMiddleware(h)
	return otelhttp.NewHandler(h, "relay")
}

// root upgrades websocket requests, serves the static index when present and
// otherwise reports that the server is up.
func (rt *routes) root(server *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			server.ServeHTTP(w, r)
			return
		}

		index := filepath.Join(rt.publicDir, "index.html")
		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			http.ServeFile(w, r, index)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("Server running on port %d", rt.port),
		})
	}
}

func healthHandler(store RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "healthy",
			"rooms":  store.Len(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write response", "error", err)
	}
}
