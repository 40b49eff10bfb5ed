package udp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mousemirror/mousemirror/internal/config"
)

const (
	MaxBufferSize = 4096
)

// ConnectionHandler defines a function type for handling incoming UDP datagrams.
type ConnectionHandler func(ctx context.Context, length int, data []byte, clientAddr *net.UDPAddr)

// UDPServer represents a UDP server.
type UDPServer struct {
	socket    *net.UDPConn
	log       *slog.Logger
	cfg       *config.Config
	natsConn  *nats.Conn
	closeOnce sync.Once
}

// NewUDPServer creates and configures a new UDPServer instance bound to all interfaces.
func NewUDPServer(cfg *config.Config, logger *slog.Logger) (*UDPServer, error) {
	// resolve udp address to host on
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", cfg.ServerPort))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	// create the UDP listener
	socket, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start UDP listener: %w", err)
	}

	logger.Info("server listening", "address", socket.LocalAddr().String())
	srv := UDPServer{
		socket: socket,
		log:    logger,
		cfg:    cfg,
	}

	return &srv, nil
}

// Config returns the server's configuration.
func (s *UDPServer) Config() *config.Config {
	return s.cfg
}

// Logger returns the server's logger.
func (s *UDPServer) Logger() *slog.Logger {
	return s.log
}

// Socket returns the server's UDP socket.
func (s *UDPServer) Socket() *net.UDPConn {
	return s.socket
}

// NATS returns the server's NATS connection (nil when not configured).
func (s *UDPServer) NATS() *nats.Conn {
	return s.natsConn
}

// Close closes the socket, unblocking ProcessConnections. Safe to call more than once.
func (s *UDPServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.socket.Close()
		if s.natsConn != nil {
			s.natsConn.Close()
		}
	})

	return err
}

// ProcessConnections reads datagrams and hands each one to the handler, in
// arrival order, until the socket is closed or the context is cancelled.
func (s *UDPServer) ProcessConnections(ctx context.Context, wg *sync.WaitGroup, handler ConnectionHandler) {
	defer wg.Done()

	buffer := make([]byte, MaxBufferSize)

	for {
		select {
		case <-ctx.Done():
			s.Logger().Info("stopping connection processor")
			return
		default:
			n, clientAddr, err := s.Socket().ReadFromUDP(buffer)
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					s.Logger().Info("socket closed, stopping connection processor")
					return
				}

				s.Logger().Error("error reading from UDP socket", "error", err)
				continue
			}

			// make a copy of the data for processing
			data := make([]byte, n)
			copy(data, buffer[:n])

			// handle the incoming data
			handler(ctx, n, data, clientAddr)
		}
	}
}

// WaitForShutdown waits for shutdown signals and triggers the provided cancel function.
func (s *UDPServer) WaitForShutdown(cancelCtx context.CancelFunc, wg *sync.WaitGroup) error {
	// setup signal handling
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalChannel)

	// block until signal received
	sig := <-signalChannel
	s.Logger().Info("shutdown signal received", "signal", sig.String())

	return s.Shutdown(cancelCtx, wg)
}

// Shutdown cancels the context, closes the socket and waits for all goroutines to finish.
func (s *UDPServer) Shutdown(cancelCtx context.CancelFunc, wg *sync.WaitGroup) error {
	// cancel context to signal all goroutines to stop
	cancelCtx()

	// close the socket so the blocked reader returns
	if err := s.Close(); err != nil {
		s.Logger().Error("failed to close socket", "error", err)
	}

	// wait for all goroutines to finish
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.Logger().Info("all goroutines have finished")
		return nil
	case <-time.After(time.Duration(s.Config().ShutdownTimeoutSeconds) * time.Second):
		s.Logger().Warn("shutdown timeout reached, forcing exit")
		return fmt.Errorf("shutdown timeout reached")
	}
}
