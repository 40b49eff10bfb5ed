package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mousemirror/mousemirror/internal/config"
	"github.com/mousemirror/mousemirror/internal/pointer/desktop"
	"github.com/mousemirror/mousemirror/internal/servers/base/udp"
	"github.com/mousemirror/mousemirror/internal/servers/mirror"
)

// Run receives motion from clients and replays it on the local pointer until
// a shutdown signal arrives.
func Run(cfg *config.Config, logger *slog.Logger) error {
	// setup wait group for goroutines
	var wg sync.WaitGroup

	// create a context for graceful shutdown
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	baseServer, err := udp.NewUDPServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create base server: %w", err)
	}

	//nolint:errcheck // socket will be closed on shutdown
	defer baseServer.Close()

	// connect to NATS server (optional)
	if err = baseServer.CreateNATSConnection(); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	mirrorServer, err := mirror.NewMirrorServer(baseServer, desktop.New())
	if err != nil {
		return fmt.Errorf("failed to create mirror server: %w", err)
	}

	logger.Info("mirror server started",
		"interpolationSteps", cfg.InterpolationSteps,
		"playbackPolicy", cfg.PlaybackPolicy,
		"sequencePolicy", cfg.SequencePolicy,
		"natsRelay", baseServer.NATS() != nil,
	)

	// start datagram processor goroutine
	wg.Add(1)
	go mirrorServer.ProcessConnections(ctx, &wg, mirrorServer.HandleIncomingPacket)

	// start removing idle sessions
	wg.Add(1)
	go mirrorServer.ReapIdleSessions(ctx, &wg)

	// wait for shutdown signal
	err = mirrorServer.WaitForShutdown(cancelCtx, &wg)
	mirrorServer.StopSessions()

	return err
}
