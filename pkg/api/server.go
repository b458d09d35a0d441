package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cbodonnell/matchrelay/pkg/api/handlers"
	"github.com/cbodonnell/matchrelay/pkg/api/middleware"
	authproviders "github.com/cbodonnell/matchrelay/pkg/auth/providers"
	"github.com/cbodonnell/matchrelay/pkg/log"
	"github.com/cbodonnell/matchrelay/pkg/repositories"
	"github.com/cbodonnell/matchrelay/pkg/state"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port int
	TLS  *TLSConfig
	// AllowOrigin is sent as Access-Control-Allow-Origin. Defaults to "*".
	AllowOrigin string
	Store       state.RoomStore
	Connections handlers.ConnectionCounter
	Repository  repositories.Repository
	// WebSocket is mounted at /ws when set.
	WebSocket http.Handler
	// AuthProvider, when set, guards /ws. The read-only endpoints stay open.
	AuthProvider authproviders.AuthProvider
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewAPIServer creates a new http.Server serving the WebSocket endpoint
// and the read-only status, rooms and history endpoints.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	return &APIServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           NewRouter(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
		tls: opts.TLS,
	}
}

// NewRouter returns the handler behind an APIServer.
func NewRouter(opts NewAPIServerOptions) http.Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	allowOrigin := opts.AllowOrigin
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	startedAt := now()

	r := mux.NewRouter()

	if opts.WebSocket != nil {
		ws := opts.WebSocket
		if opts.AuthProvider != nil {
			ws = middleware.NewAuthMiddleware(opts.AuthProvider)(ws)
		}
		r.Handle("/ws", ws).Methods(http.MethodGet)
	}

	read := r.NewRoute().Subrouter()
	read.Use(corsMiddleware(allowOrigin))
	read.HandleFunc("/status", handlers.HandleStatus(opts.Store, opts.Connections, startedAt, now)).Methods(http.MethodGet, http.MethodOptions)
	read.HandleFunc("/rooms", handlers.HandleListRooms(opts.Store, now)).Methods(http.MethodGet, http.MethodOptions)
	if opts.Repository != nil {
		read.HandleFunc("/history", handlers.HandleListHistory(opts.Repository)).Methods(http.MethodGet, http.MethodOptions)
	}

	return r
}

func corsMiddleware(allowOrigin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
