package client

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/mousemirror/mousemirror/internal/config"
	"github.com/mousemirror/mousemirror/internal/pointer"
	"github.com/mousemirror/mousemirror/internal/pointer/desktop"
	"github.com/mousemirror/mousemirror/internal/sender"
	"github.com/mousemirror/mousemirror/internal/servers/base/udp"
)

// Run samples the local pointer and streams its motion to target until a
// shutdown signal arrives or a record cannot be sent.
func Run(cfg *config.Config, target string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	return run(ctx, cfg, target, desktop.New(), logger)
}

func run(ctx context.Context, cfg *config.Config, target string, locator pointer.Locator, logger *slog.Logger) error {
	overflow, err := cfg.Overflow()
	if err != nil {
		return err
	}

	client, err := udp.NewUDPClient(cfg, target, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	//nolint:errcheck // nothing left to flush on a UDP socket
	defer client.Close()

	s := sender.New(locator, client, sender.Options{
		TickInterval: cfg.TickInterval(),
		Overflow:     overflow,
	}, logger.With("component", "sender"))

	if err = s.Run(ctx); err != nil {
		return fmt.Errorf("sender stopped: %w", err)
	}

	stats := s.Stats()
	logger.Info("client stopped", "ticks", stats.Ticks, "sent", stats.Sent, "overflows", stats.Overflows)
	return nil
}
