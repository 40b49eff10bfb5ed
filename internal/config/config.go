package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mousemirror/mousemirror/internal/motion"
	"github.com/mousemirror/mousemirror/internal/smoother"
)

type Config struct {
	// LogLevel is the level of logs to output (debug|info|warn|error)
	LogLevel string `env:"LOG_LEVEL" default:"info"`

	// ServerPort is the UDP port the server listens on and the client sends to
	ServerPort int `env:"SERVER_PORT" default:"8005"`

	// TargetAddress is the server the client sends motion to (host or host:port)
	TargetAddress string `env:"TARGET_ADDRESS" default:"127.0.0.1"`

	// TickIntervalMS is how often the client samples the pointer, in milliseconds
	TickIntervalMS int `env:"TICK_INTERVAL_MS" default:"10"`

	// OverflowPolicy is what the client does with a per-tick delta outside ±2047
	// clamp = send the clamped delta and carry the rest into later ticks
	// split = send several records in the same tick
	// drop  = send nothing and resynchronise
	OverflowPolicy string `env:"OVERFLOW_POLICY" default:"clamp"`

	// InterpolationSteps is the number of sub-steps each received record is spread over
	InterpolationSteps int `env:"INTERPOLATION_STEPS" default:"5"`

	// MaxInterpolationGapMS caps how long a single record is spread over (0 = no cap)
	MaxInterpolationGapMS int `env:"MAX_INTERPOLATION_GAP_MS" default:"0"`

	// PlaybackPolicy is what happens when a record arrives mid-interpolation
	// queue   = finish the current interpolation first
	// preempt = apply the rest of the current interpolation at once
	PlaybackPolicy string `env:"PLAYBACK_POLICY" default:"queue"`

	// PlaybackQueueDepth is the number of records a session buffers behind the current playback
	PlaybackQueueDepth int `env:"PLAYBACK_QUEUE_DEPTH" default:"64"`

	// SequencePolicy controls whether sequence numbers are acted on (ignore|reject-stale)
	SequencePolicy string `env:"SEQUENCE_POLICY" default:"ignore"`

	// SessionIdleTimeoutSeconds removes sender sessions that have been silent this long (0 = never)
	SessionIdleTimeoutSeconds int `env:"SESSION_IDLE_TIMEOUT_SECONDS" default:"300"`

	// ShutdownTimeoutSeconds is the number of seconds to wait for graceful shutdown
	ShutdownTimeoutSeconds int `env:"SHUTDOWN_TIMEOUT_SECONDS" default:"15"`

	// NATSURL is the URL (with port) of the NATS server; empty disables the motion relay
	NATSURL string `env:"NATS_URL" default:""`

	// NATSClientPrefix is the prefix to use for the NATS client connection (prefix + hostname)
	NATSClientPrefix string `env:"NATS_CLIENT_PREFIX" default:"mousemirror "`

	// NATSOutgoingBufferSize is the size of the outgoing buffer for NATS connections
	NATSOutgoingBufferSize int `env:"NATS_OUTGOING_BUFFER_SIZE" default:"1048576"` // 1MB

	// NATSSubjectPrefix is the subject prefix decoded records are published under
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" default:"mousemirror.motion"`
}

func ParseConfigFromEnv() Config {
	return env.Must(env.ParseAsWithOptions[Config](env.Options{
		DefaultValueTagName: "default",
	}))
}

// Validate checks the values that cannot be expressed as struct tags.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT out of range: %d", c.ServerPort))
	}
	if c.TickIntervalMS <= 0 {
		errs = append(errs, fmt.Errorf("TICK_INTERVAL_MS must be positive: %d", c.TickIntervalMS))
	}
	if c.InterpolationSteps <= 0 {
		errs = append(errs, fmt.Errorf("INTERPOLATION_STEPS must be positive: %d", c.InterpolationSteps))
	}
	if c.MaxInterpolationGapMS < 0 {
		errs = append(errs, fmt.Errorf("MAX_INTERPOLATION_GAP_MS must not be negative: %d", c.MaxInterpolationGapMS))
	}
	if c.PlaybackQueueDepth <= 0 {
		errs = append(errs, fmt.Errorf("PLAYBACK_QUEUE_DEPTH must be positive: %d", c.PlaybackQueueDepth))
	}
	if c.SessionIdleTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("SESSION_IDLE_TIMEOUT_SECONDS must not be negative: %d", c.SessionIdleTimeoutSeconds))
	}
	if _, err := c.Overflow(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Playback(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Sequence(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

func (c *Config) MaxInterpolationGap() time.Duration {
	return time.Duration(c.MaxInterpolationGapMS) * time.Millisecond
}

func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutSeconds) * time.Second
}

func (c *Config) Overflow() (motion.OverflowPolicy, error) {
	return motion.ParseOverflowPolicy(c.OverflowPolicy)
}

func (c *Config) Playback() (smoother.PlaybackPolicy, error) {
	return smoother.ParsePlaybackPolicy(c.PlaybackPolicy)
}

func (c *Config) Sequence() (motion.SequencePolicy, error) {
	return motion.ParseSequencePolicy(c.SequencePolicy)
}
