package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	mu         sync.Mutex
	httpServer *http.Server
}

const (
	maxHeaderBytes    = 1 << 20 // 1 MB
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second

	defaultPort = "8080"
)

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// listenAddr binds every interface so the settings form is reachable on the
// LAN. Accepts "8080", ":8080" or a full "host:port".
func listenAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		port = defaultPort
	}
	if strings.Contains(strings.TrimPrefix(port, ":"), ":") {
		return port
	}
	return net.JoinHostPort("0.0.0.0", strings.TrimPrefix(port, ":"))
}

// Run blocks serving HTTP until Shutdown. A clean shutdown returns nil.
func (s *Server) Run(port string, handler http.Handler) error {
	hs := s.install(newHTTPServer(listenAddr(port), handler))
	return serve(hs.ListenAndServe)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(l net.Listener, handler http.Handler) error {
	hs := s.install(newHTTPServer(l.Addr().String(), handler))
	return serve(func() error { return hs.Serve(l) })
}

func (s *Server) install(hs *http.Server) *http.Server {
	s.mu.Lock()
	s.httpServer = hs
	s.mu.Unlock()
	return hs
}

func serve(fn func() error) error {
	if err := fn(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	hs := s.httpServer
	s.mu.Unlock()
	if hs == nil {
		return nil
	}
	return hs.Shutdown(ctx)
}
