package udp

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/mousemirror/mousemirror/internal/config"
)

// UDPClient is a connected UDP socket pointed at a single server.
type UDPClient struct {
	socket *net.UDPConn
	log    *slog.Logger
	cfg    *config.Config
}

// NewUDPClient resolves target and connects to it. target may be a bare host,
// in which case the configured server port is used.
func NewUDPClient(cfg *config.Config, target string, logger *slog.Logger) (*UDPClient, error) {
	address := TargetAddress(target, cfg.ServerPort)

	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address %s: %w", address, err)
	}

	socket, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	logger.Info("connected to server", "address", socket.RemoteAddr().String(), "localAddress", socket.LocalAddr().String())
	return &UDPClient{
		socket: socket,
		log:    logger,
		cfg:    cfg,
	}, nil
}

// TargetAddress joins host with the default port unless it already carries one.
func TargetAddress(target string, defaultPort int) string {
	if target == "" {
		target = "127.0.0.1"
	}

	if _, _, err := net.SplitHostPort(target); err == nil {
		return target
	}

	return net.JoinHostPort(target, strconv.Itoa(defaultPort))
}

// Config returns the client's configuration.
func (c *UDPClient) Config() *config.Config {
	return c.cfg
}

// Logger returns the client's logger.
func (c *UDPClient) Logger() *slog.Logger {
	return c.log
}

// Socket returns the connected UDP socket.
func (c *UDPClient) Socket() *net.UDPConn {
	return c.socket
}

// Write sends one datagram to the server.
func (c *UDPClient) Write(b []byte) (int, error) {
	return c.socket.Write(b)
}

// Close closes the socket.
func (c *UDPClient) Close() error {
	return c.socket.Close()
}
