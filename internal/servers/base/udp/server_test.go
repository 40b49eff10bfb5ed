package udp

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mousemirror/mousemirror/internal/config"
)

func TestTargetAddress(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{target: "", want: "127.0.0.1:8005"},
		{target: "192.168.1.20", want: "192.168.1.20:8005"},
		{target: "192.168.1.20:9000", want: "192.168.1.20:9000"},
		{target: "desk.local", want: "desk.local:8005"},
		{target: "::1", want: "[::1]:8005"},
		{target: "[::1]:9000", want: "[::1]:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if got := TargetAddress(tt.target, 8005); got != tt.want {
				t.Fatalf("TargetAddress(%q) = %q, want %q", tt.target, got, tt.want)
			}
		})
	}
}

func TestProcessConnectionsLoopback(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	cfg := &config.Config{ServerPort: 0, ShutdownTimeoutSeconds: 5}

	srv, err := NewUDPServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewUDPServer() error = %v", err)
	}

	port := srv.Socket().LocalAddr().(*net.UDPAddr).Port
	client, err := NewUDPClient(cfg, net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), logger)
	if err != nil {
		t.Fatalf("NewUDPClient() error = %v", err)
	}
	defer client.Close()

	received := make(chan []byte, 4)
	handler := func(_ context.Context, length int, data []byte, _ *net.UDPAddr) {
		if length != len(data) {
			t.Errorf("handler length = %d, len(data) = %d", length, len(data))
		}
		received <- data
	}

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	wg.Add(1)
	go srv.ProcessConnections(ctx, &wg, handler)

	payload := []byte{1, 2, 3, 4, 5}
	if _, err = client.Write(payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, payload) {
			t.Fatalf("handler received %v, want %v", got, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}

	if err = srv.Shutdown(cancel, &wg); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	// a second close must not fail
	if err = srv.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestCreateNATSConnectionDisabled(t *testing.T) {
	cfg := &config.Config{ServerPort: 0}
	srv, err := NewUDPServer(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewUDPServer() error = %v", err)
	}
	defer srv.Close()

	if err = srv.CreateNATSConnection(); err != nil {
		t.Fatalf("CreateNATSConnection() error = %v", err)
	}
	if srv.NATS() != nil {
		t.Fatal("NATS() should be nil when no URL is configured")
	}
}
