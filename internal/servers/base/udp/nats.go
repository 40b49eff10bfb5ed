package udp

import (
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

// CreateNATSConnection connects to the configured NATS server. It is a no-op
// when no NATS URL is configured.
func (s *UDPServer) CreateNATSConnection() error {
	if s.Config().NATSURL == "" {
		s.Logger().Info("NATS relay disabled")
		return nil
	}

	hostname, _ := os.Hostname()

	// create a new NATS connection
	options := []nats.Option{
		nats.Name(fmt.Sprintf("%s%s", s.Config().NATSClientPrefix, hostname)),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectBufSize(s.Config().NATSOutgoingBufferSize),
		nats.DisconnectErrHandler(s.OnNATSDisconnected),
		nats.ReconnectHandler(s.OnNATSReconnected),
		nats.ClosedHandler(s.OnNATSClosed),
	}

	// connect to NATS server
	nc, err := nats.Connect(s.Config().NATSURL, options...)
	if err != nil {
		return err
	}

	s.natsConn = nc
	return nil
}

func (s *UDPServer) OnNATSDisconnected(_ *nats.Conn, err error) {
	s.Logger().Warn("NATS disconnected", "error", err)
}

func (s *UDPServer) OnNATSReconnected(_ *nats.Conn) {
	s.Logger().Info("NATS reconnected")
}

func (s *UDPServer) OnNATSClosed(_ *nats.Conn) {
	s.Logger().Info("NATS connection permanently closed")
}
