package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelageech/gameserv/fileserver"
	"github.com/pelageech/gameserv/metrics"
	"github.com/pelageech/gameserv/nocache"
	"github.com/pelageech/gameserv/timer"
)

const (
	// Host is the address the server binds to.
	Host = "0.0.0.0"

	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = http.ErrServerClosed

// Config contains all the necessary information of the server.
type Config struct {
	port int
	root string
}

func NewConfig(port int, root string) *Config {
	return &Config{
		port: port,
		root: root,
	}
}

func (c *Config) Port() int {
	return c.port
}

func (c *Config) Root() string {
	return c.root
}

// Addr is the listen address, Host:port.
func (c *Config) Addr() string {
	return net.JoinHostPort(Host, strconv.Itoa(c.port))
}

// Server serves the document root with caching disabled.
type Server struct {
	config  *Config
	logger  *log.Logger
	metrics *metrics.Metrics
	out     io.Writer
	http    *http.Server
}

// New is the constructor of the server. m may be nil, the startup
// message goes to out.
func New(config *Config, logger *log.Logger, m *metrics.Metrics, out io.Writer) *Server {
	s := &Server{
		config:  config,
		logger:  logger,
		metrics: m,
		out:     out,
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          logger.StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel}),
	}
	return s
}

func (s *Server) Config() *Config {
	return s.config
}

// Handler returns the full request chain: access log, metrics,
// cache-busting headers and the file server.
func (s *Server) Handler() http.Handler {
	var h http.Handler = fileserver.New(s.config.root)
	h = nocache.Handler(h)
	if s.metrics != nil {
		h = s.metrics.Middleware(h)
	}
	return timer.Track(s.logger, h)
}

// Listen binds the listening socket.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.config.Addr(), err)
	}
	return ln, nil
}

// Serve accepts connections on ln until Shutdown, one goroutine per
// connection.
func (s *Server) Serve(ln net.Listener) error {
	port := s.config.port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	fmt.Fprintf(s.out, "Game server running at http://%s\n", net.JoinHostPort(Host, strconv.Itoa(port)))
	s.logger.Info("Serving", "root", s.config.root, "addr", ln.Addr().String())

	err := s.http.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return ErrServerClosed
	}
	return err
}

// ListenAndServe binds Host:port and serves until the process ends.
func (s *Server) ListenAndServe() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown stops accepting connections and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
