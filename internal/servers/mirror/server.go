package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/mousemirror/mousemirror/internal/motion"
	"github.com/mousemirror/mousemirror/internal/pointer"
	"github.com/mousemirror/mousemirror/internal/servers/base/udp"
	"github.com/mousemirror/mousemirror/internal/smoother"
)

// Option customises a MirrorServer.
type Option func(*MirrorServer)

// WithPublisher relays accepted records to p instead of the server's NATS connection.
func WithPublisher(p Publisher) Option {
	return func(s *MirrorServer) {
		s.publisher = p
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *MirrorServer) {
		s.now = now
	}
}

// WithAfter replaces the timer used to pace interpolation sub-steps.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(s *MirrorServer) {
		s.playerOpts.After = after
	}
}

// MirrorServer receives motion records and replays them on the local pointer,
// keeping interpolation state per sender.
type MirrorServer struct {
	*udp.UDPServer

	mover       pointer.Mover
	sessions    *xsync.MapOf[string, *Session]
	trackerOpts smoother.Options
	playerOpts  smoother.PlayerOptions
	sequence    motion.SequencePolicy
	idleTimeout time.Duration
	publisher   Publisher
	now         func() time.Time

	malformed atomic.Uint64
}

func NewMirrorServer(baseServer *udp.UDPServer, mover pointer.Mover, opts ...Option) (*MirrorServer, error) {
	cfg := baseServer.Config()

	playback, err := cfg.Playback()
	if err != nil {
		return nil, err
	}

	sequence, err := cfg.Sequence()
	if err != nil {
		return nil, err
	}

	s := &MirrorServer{
		UDPServer: baseServer,
		mover:     pointer.NewSerialMover(mover),
		sessions:  xsync.NewMapOf[string, *Session](),
		trackerOpts: smoother.Options{
			Steps:  cfg.InterpolationSteps,
			MaxGap: cfg.MaxInterpolationGap(),
		},
		playerOpts: smoother.PlayerOptions{
			Policy:     playback,
			QueueDepth: cfg.PlaybackQueueDepth,
		},
		sequence:    sequence,
		idleTimeout: cfg.SessionIdleTimeout(),
		now:         time.Now,
	}

	// avoid storing a typed nil in the interface
	if nc := baseServer.NATS(); nc != nil {
		s.publisher = nc
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// HandleIncomingPacket decodes one datagram and feeds it to the sender's session.
// Datagrams of the wrong size are dropped without touching any session.
func (s *MirrorServer) HandleIncomingPacket(ctx context.Context, length int, data []byte, clientAddr *net.UDPAddr) {
	clientAddrStr := clientAddr.String()

	rec, err := motion.Decode(data[:length])
	if err != nil {
		s.malformed.Add(1)
		if s.Logger().Enabled(ctx, slog.LevelDebug) {
			s.Logger().Debug("dropping malformed datagram", "clientAddr", clientAddrStr, "error", err, "dump", spew.Sdump(data[:length]))
		}
		return
	}

	receivedAt := s.now()
	session := s.lookupSession(ctx, clientAddr, receivedAt)

	if !session.accept(rec, s.sequence) {
		s.Logger().Debug("rejecting stale record", "clientAddr", clientAddrStr, "sequence", rec.Sequence, "lastSequence", session.lastSequence)
		return
	}

	plan := session.tracker.Next(rec)
	s.Logger().Debug("received motion record",
		"clientAddr", clientAddrStr,
		"sequence", rec.Sequence,
		"timestamp", rec.Timestamp,
		"dx", rec.DX,
		"dy", rec.DY,
		"steps", len(plan.Steps),
		"gap", plan.Gap.String(),
	)

	if !session.player.Enqueue(ctx, plan) {
		if ctx.Err() == nil {
			s.Logger().Warn("session stopped before record could be played", "clientAddr", clientAddrStr, "sessionID", session.ID.String(), "sequence", rec.Sequence)
		}
		return
	}
	s.relayRecord(session, rec, plan, receivedAt)
}

// lookupSession returns the session for clientAddr, creating and starting it
// on first contact. The session is touched under the map's bucket lock, which
// expire also holds while it re-checks LastSeen.
func (s *MirrorServer) lookupSession(ctx context.Context, clientAddr *net.UDPAddr, now time.Time) *Session {
	created := false
	session, _ := s.sessions.Compute(clientAddr.String(), func(existing *Session, loaded bool) (*Session, bool) {
		if !loaded {
			existing = s.newSession(ctx, clientAddr, now)
			created = true
		}
		existing.touch(now)
		return existing, false
	})

	if created {
		s.Logger().Info("new session", "clientAddr", session.ClientAddr().String(), "sessionID", session.ID.String())
		go session.player.Run(session.ctx)
	}

	return session
}

func (s *MirrorServer) newSession(ctx context.Context, clientAddr *net.UDPAddr, now time.Time) *Session {
	sessionCtx, cancel := context.WithCancel(ctx)
	return &Session{
		ID:         uuid.New(),
		clientAddr: clientAddr,
		createdAt:  now,
		tracker:    smoother.NewTracker(s.trackerOpts),
		player:     smoother.NewPlayer(s.mover, s.playerOpts, s.Logger().With("component", "player", "clientAddr", clientAddr.String())),
		ctx:        sessionCtx,
		cancel:     cancel,
	}
}

// Session returns the session for a sender address, if any.
func (s *MirrorServer) Session(clientAddr string) (*Session, bool) {
	return s.sessions.Load(clientAddr)
}

// SessionCount returns the number of live sessions.
func (s *MirrorServer) SessionCount() int {
	return s.sessions.Size()
}

// MalformedCount returns how many datagrams were dropped for having the wrong size.
func (s *MirrorServer) MalformedCount() uint64 {
	return s.malformed.Load()
}

// ReapIdleSessions periodically removes sessions that have been silent for
// longer than the configured idle timeout.
func (s *MirrorServer) ReapIdleSessions(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	if s.idleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(max(s.idleTimeout/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Logger().Info("stopping session reaper")
			return
		case <-ticker.C:
			if n := s.Reap(s.now()); n > 0 {
				s.Logger().Info("reaped idle sessions", "count", n, "remaining", s.SessionCount())
			}
		}
	}
}

// Reap stops and removes every session last seen before now minus the idle
// timeout. It returns the number of sessions removed.
func (s *MirrorServer) Reap(now time.Time) int {
	if s.idleTimeout <= 0 {
		return 0
	}

	cutoff := now.Add(-s.idleTimeout)
	reaped := 0

	s.sessions.Range(func(key string, _ *Session) bool {
		session := s.expire(key, cutoff)
		if session == nil {
			return true
		}

		session.stop()
		reaped++

		s.Logger().Info("session expired",
			"clientAddr", key,
			"sessionID", session.ID.String(),
			"lastSeen", session.LastSeen(),
			"stats", fmt.Sprintf("%+v", session.player.Stats()),
		)
		return true
	})

	return reaped
}

// expire removes the session stored under key if it was last seen before
// cutoff, re-reading it under the bucket lock. It returns the removed session
// or nil.
func (s *MirrorServer) expire(key string, cutoff time.Time) *Session {
	var expired *Session
	s.sessions.Compute(key, func(session *Session, loaded bool) (*Session, bool) {
		if !loaded {
			return session, true
		}
		if !session.LastSeen().Before(cutoff) {
			return session, false
		}
		expired = session
		return session, true
	})
	return expired
}

// StopSessions stops every session's playback and clears the session table.
func (s *MirrorServer) StopSessions() {
	s.sessions.Range(func(key string, session *Session) bool {
		s.sessions.Delete(key)
		session.stop()
		return true
	})
}
