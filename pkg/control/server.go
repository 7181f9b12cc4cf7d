package control

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/golang/glog"
	"github.com/pkg/errors"
)

const (
	// DefaultPort is the default control port
	DefaultPort = 5000

	readHeaderTimeout = 10 * time.Second
)

// NewServer returns a control server listening on port
func NewServer(port int, handler http.Handler) *Server {
	if port == 0 {
		port = DefaultPort
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%v", port),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Server serves the control routes
type Server struct {
	httpServer *http.Server
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	log.Infof("Control server listening on %v", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Error serving control routes")
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
