package buffer

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/amplimix/amplimix/internal/logging"
)

// PoolConfig sizes the three frame-count tiers a Pool recycles Buffers
// under. Requests larger than LargeFrames bypass the pool entirely.
type PoolConfig struct {
	Channels    int
	SmallFrames int // e.g. one mix block (256-512 frames)
	MediumFrames int // e.g. a decode chunk (4096 frames)
	LargeFrames int // e.g. a full reflections tail (65536 frames)
}

// DefaultPoolConfig matches the block sizes a stereo mixer pipeline
// typically allocates at: one Mix-call block, one decode chunk, and one
// convolution tail.
func DefaultPoolConfig(channels int) PoolConfig {
	return PoolConfig{
		Channels:     channels,
		SmallFrames:  512,
		MediumFrames: 4096,
		LargeFrames:  65536,
	}
}

// PoolStats reports coarse usage counters for a Pool, intended for the
// mixer's Prometheus metrics exporter.
type PoolStats struct {
	TotalBuffers  int64
	ActiveBuffers int64
}

// Pool recycles fixed-channel-count Buffers across three frame-count
// tiers so the audio thread never calls New mid-Mix. Every Buffer
// returned by Get must eventually be handed back via Put.
type Pool struct {
	config PoolConfig
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool
	stats  PoolStats
	logger *slog.Logger
}

// NewPool constructs a Pool for the given configuration.
func NewPool(config PoolConfig) *Pool {
	logger := logging.ForService("buffer")
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pool")

	p := &Pool{config: config, logger: logger}
	p.small.New = func() any { return New(config.SmallFrames, config.Channels) }
	p.medium.New = func() any { return New(config.MediumFrames, config.Channels) }
	p.large.New = func() any { return New(config.LargeFrames, config.Channels) }

	logger.Info("buffer pool created",
		"channels", config.Channels,
		"small_frames", config.SmallFrames,
		"medium_frames", config.MediumFrames,
		"large_frames", config.LargeFrames)

	return p
}

// Get returns a Buffer with at least frames capacity in the Channels
// configured for this Pool. The returned Buffer's Frames() may exceed
// the request; callers should index only up to the frame count they
// asked for.
func (p *Pool) Get(frames int) *Buffer {
	atomic.AddInt64(&p.stats.TotalBuffers, 1)
	atomic.AddInt64(&p.stats.ActiveBuffers, 1)

	switch {
	case frames <= p.config.SmallFrames:
		b := p.small.Get().(*Buffer)
		b.Clear()
		return b
	case frames <= p.config.MediumFrames:
		b := p.medium.Get().(*Buffer)
		b.Clear()
		return b
	case frames <= p.config.LargeFrames:
		b := p.large.Get().(*Buffer)
		b.Clear()
		return b
	default:
		p.logger.Debug("allocating oversized buffer outside pool tiers", "frames", frames)
		return New(frames, p.config.Channels)
	}
}

// Put returns b to its tier if it was sized for one of this Pool's
// tiers and matches its channel count; otherwise it is dropped for the
// garbage collector to reclaim.
func (p *Pool) Put(b *Buffer) {
	atomic.AddInt64(&p.stats.ActiveBuffers, -1)

	if b.Channels() != p.config.Channels {
		return
	}
	switch b.Frames() {
	case p.config.SmallFrames:
		p.small.Put(b)
	case p.config.MediumFrames:
		p.medium.Put(b)
	case p.config.LargeFrames:
		p.large.Put(b)
	}
}

// Stats returns a snapshot of pool usage counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		TotalBuffers:  atomic.LoadInt64(&p.stats.TotalBuffers),
		ActiveBuffers: atomic.LoadInt64(&p.stats.ActiveBuffers),
	}
}
