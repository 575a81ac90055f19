// Package server provides the control endpoint: a Unix socket that accepts
// one command line per connection and answers with one reply.
package server

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/internal/daemon/queue"
	"github.com/sirupsen/logrus"
)

// TimeoutReply is written when the dispatch loop does not answer in time.
const TimeoutReply = "Error: timed out waiting for daemon"

// DefaultReplyTimeout applies when no timeout is configured.
const DefaultReplyTimeout = 10 * time.Second

// Server manages the daemon's control socket.
type Server struct {
	logger  *logrus.Entry
	queue   *queue.Queue
	timeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	conns    sync.WaitGroup
}

// New creates a new Server that enqueues commands on q.
func New(q *queue.Queue, replyTimeout time.Duration, logger *logrus.Entry) *Server {
	if replyTimeout <= 0 {
		replyTimeout = DefaultReplyTimeout
	}
	return &Server{
		logger:  logger,
		queue:   q,
		timeout: replyTimeout,
	}
}

// Listen binds the socket. It removes a stale socket first and restricts
// the new one to the current user.
func (s *Server) Listen(socketPath string) error {
	// Cleanup stale socket
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.WithField("socket", socketPath).Info("Daemon listening")
	return nil
}

// Serve accepts connections until ctx is canceled or Shutdown is called.
// Each connection is handled on its own goroutine.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return fmt.Errorf("server is not listening")
	}

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.WithError(err).Warn("Accept failed")
			continue
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handle(ctx, conn)
		}()
	}
}

// ListenAndServe binds socketPath and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, socketPath string) error {
	if err := s.Listen(socketPath); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Shutdown closes the listener and waits for in-flight connections,
// bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener != nil {
		_ = listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(s.timeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && err != io.EOF {
		s.logger.WithError(err).Debug("Failed to read command")
		return
	}
	text := strings.TrimSpace(line)
	if text == "" {
		return
	}

	reply := s.Dispatch(ctx, text)

	_ = conn.SetWriteDeadline(time.Now().Add(s.timeout))
	if _, err := io.WriteString(conn, reply+"\n"); err != nil {
		s.logger.WithError(err).Debug("Failed to write reply")
	}
}

// Dispatch enqueues text and waits for the dispatch loop's reply. The
// whole exchange, enqueueing included, is bounded by the reply timeout.
func (s *Server) Dispatch(ctx context.Context, text string) string {
	msg := queue.NewCommand(uuid.NewString(), text)
	logger := s.logger.WithField("request_id", msg.ID)
	logger.WithField("command", text).Debug("Received command")

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.queue.Put(ctx, msg); err != nil {
		logger.WithError(errors.ControlTimeout(text, s.timeout)).Warn("Could not enqueue command")
		return TimeoutReply
	}

	select {
	case reply := <-msg.Reply:
		return reply
	case <-ctx.Done():
		logger.WithError(errors.ControlTimeout(text, s.timeout)).Warn("Timed out waiting for reply")
		return TimeoutReply
	}
}
