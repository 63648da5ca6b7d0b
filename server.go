package shrike

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Server accepts connections and runs one session per connection. The
// protocol engine itself has no dependency on the server; a Session
// can be run over any net.Conn.
type Server struct {
	options *ServerOptions

	listener net.Listener

	// connections tracks active connections
	connMu      sync.Mutex
	connections map[net.Conn]struct{}

	// shutdown coordination
	ctx        context.Context
	cancel     context.CancelFunc
	shutdownWg sync.WaitGroup
	closed     atomic.Bool
}

// NewServer creates a server from built options.
func NewServer(options *ServerOptions) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		options:     options,
		connections: make(map[net.Conn]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ListenAndServe listens on the configured address and serves.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.options.Addr)
	if err != nil {
		return fmt.Errorf("shrike: failed to listen: %w", err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on the listener until Shutdown or Close.
func (s *Server) Serve(listener net.Listener) error {
	s.listener = listener

	s.options.Logger.Info("server started",
		slog.String("addr", listener.Addr().String()),
		slog.String("name", s.options.ServerName),
	)

	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return ErrServerClosed
			}
			// Back off on persistent accept failures such as EMFILE.
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else if delay *= 2; delay > time.Second {
				delay = time.Second
			}
			s.options.Logger.Error("accept error", slog.Any("error", err), slog.Duration("retry_in", delay))
			time.Sleep(delay)
			continue
		}
		delay = 0

		s.trackConn(conn, true)
		s.shutdownWg.Add(1)
		go s.handleConnection(conn)
	}
}

// Shutdown stops accepting and waits for running sessions to finish
// their closing replies. Sessions observe the cancellation at their
// next read.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closed.Store(true)
	s.cancel()

	if s.listener != nil {
		_ = s.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.closeConns()
		return ctx.Err()
	}
}

// Close stops accepting and drops every connection immediately.
func (s *Server) Close() error {
	s.closed.Store(true)
	s.cancel()

	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.closeConns()
	return nil
}

func (s *Server) trackConn(conn net.Conn, add bool) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if add {
		s.connections[conn] = struct{}{}
	} else {
		delete(s.connections, conn)
	}
}

func (s *Server) closeConns() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.shutdownWg.Done()
	defer s.trackConn(conn, false)
	defer conn.Close()

	session := NewSession(conn, s.options)
	logger := s.options.Logger.With(
		slog.String("session", session.Context().ID),
		slog.String("remote", conn.RemoteAddr().String()),
	)
	logger.Debug("connection accepted")

	if err := session.Run(s.ctx); err != nil {
		logger.Error("session ended with error", slog.Any("error", err))
		return
	}
	logger.Debug("connection closed")
}
