package mixer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amplimix/amplimix/internal/layer"
	"github.com/amplimix/amplimix/internal/logging"
)

// HealthMonitor watches per-layer audio levels for prolonged silence and
// the mixer-wide underrun rate, surfacing
// anything that looks stuck rather than merely quiet. Adapted from
// audiocore's AudioHealthMonitor: same silence-threshold/timeout shape,
// retargeted from named AudioSources to layer.ID handles and wired to the
// orchestrator's Metrics instead of a standalone RecordProcessingError
// call (see DESIGN.md).
type HealthMonitor struct {
	silenceThresholdDB float64
	silenceTimeout      time.Duration
	checkInterval       time.Duration
	onSilenceAction     SilenceAction

	layers map[layer.ID]*layerHealth
	mu     sync.RWMutex
	logger *slog.Logger

	metrics *Metrics
}

// SilenceAction names what HealthMonitor does when a layer has produced
// no audio above silenceThresholdDB for longer than silenceTimeout.
type SilenceAction int

const (
	// SilenceActionNone records the observation but takes no action.
	SilenceActionNone SilenceAction = iota
	// SilenceActionAlert logs at Error level, for operators watching logs.
	SilenceActionAlert
	// SilenceActionReap marks the layer, which IsMarkedForReap then
	// reports. Amplimix.Mix does not consult the mark and does not stop
	// the layer itself.
	SilenceActionReap
)

type layerHealth struct {
	lastAudioTime time.Time
	lastLevelDB   float64
	healthy       bool
	markedForReap bool
}

// HealthMonitorConfig configures a HealthMonitor.
type HealthMonitorConfig struct {
	SilenceThresholdDB float64
	SilenceTimeout      time.Duration
	CheckInterval       time.Duration
	OnSilenceAction     SilenceAction
}

// DefaultHealthMonitorConfig mirrors typical game-audio tolerances: a
// layer playing below -60dB for 30s without recovering is treated as
// effectively silent.
func DefaultHealthMonitorConfig() HealthMonitorConfig {
	return HealthMonitorConfig{
		SilenceThresholdDB: -60,
		SilenceTimeout:      30 * time.Second,
		CheckInterval:       5 * time.Second,
		OnSilenceAction:     SilenceActionAlert,
	}
}

// NewHealthMonitor constructs a HealthMonitor. metrics may be nil.
func NewHealthMonitor(config HealthMonitorConfig, metrics *Metrics) *HealthMonitor {
	logger := logging.ForService(componentMixer)
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "health_monitor")

	return &HealthMonitor{
		silenceThresholdDB: config.SilenceThresholdDB,
		silenceTimeout:      config.SilenceTimeout,
		checkInterval:       config.CheckInterval,
		onSilenceAction:     config.OnSilenceAction,
		layers:              make(map[layer.ID]*layerHealth),
		logger:              logger,
		metrics:             metrics,
	}
}

// Track starts monitoring handle. Safe to call repeatedly; a handle
// already tracked is left alone rather than having its history reset.
func (h *HealthMonitor) Track(handle layer.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.layers[handle]; exists {
		return
	}
	h.layers[handle] = &layerHealth{lastAudioTime: time.Now(), healthy: true}
}

// Untrack stops monitoring handle, e.g. once the layer is reaped.
func (h *HealthMonitor) Untrack(handle layer.ID) {
	h.mu.Lock()
	delete(h.layers, handle)
	h.mu.Unlock()
}

// UpdateLevel reports handle's RMS level (in dBFS) for the block just
// mixed. Called once per active layer per Mix call.
func (h *HealthMonitor) UpdateLevel(handle layer.ID, levelDB float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	health, exists := h.layers[handle]
	if !exists {
		return
	}

	health.lastLevelDB = levelDB
	if levelDB > h.silenceThresholdDB {
		health.lastAudioTime = time.Now()
		health.healthy = true
		return
	}

	if time.Since(health.lastAudioTime) > h.silenceTimeout && health.healthy {
		health.healthy = false
		h.handleSilentLayer(handle, health)
	}
}

func (h *HealthMonitor) handleSilentLayer(handle layer.ID, health *layerHealth) {
	switch h.onSilenceAction {
	case SilenceActionAlert:
		h.logger.Error("layer silent past timeout",
			"layer_index", handle.Index, "layer_gen", handle.Gen,
			"silence_threshold_db", h.silenceThresholdDB,
			"silence_timeout", h.silenceTimeout)
	case SilenceActionReap:
		health.markedForReap = true
		h.logger.Warn("layer marked for reap after prolonged silence",
			"layer_index", handle.Index, "layer_gen", handle.Gen)
	case SilenceActionNone:
	}
}

// IsMarkedForReap reports whether handle was flagged by SilenceActionReap
// and clears the flag, so the orchestrator's Mix loop can drain it
// exactly once per marking.
func (h *HealthMonitor) IsMarkedForReap(handle layer.ID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	health, exists := h.layers[handle]
	if !exists || !health.markedForReap {
		return false
	}
	health.markedForReap = false
	return true
}

// Healthy reports handle's last-known health, defaulting to true for an
// untracked handle (nothing has observed it as unhealthy).
func (h *HealthMonitor) Healthy(handle layer.ID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	health, exists := h.layers[handle]
	if !exists {
		return true
	}
	return health.healthy
}

// ActiveCount returns how many layers are currently tracked.
func (h *HealthMonitor) ActiveCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.layers)
}

// Start runs the periodic sweep that catches layers which stopped
// reporting levels entirely (e.g. the orchestrator itself wedged),
// rather than relying solely on UpdateLevel's on-demand check. Blocks
// until ctx is cancelled; run it in its own goroutine.
func (h *HealthMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (h *HealthMonitor) sweep() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for handle, health := range h.layers {
		if health.lastLevelDB > h.silenceThresholdDB {
			continue
		}
		if health.healthy && time.Since(health.lastAudioTime) > h.silenceTimeout {
			health.healthy = false
			h.handleSilentLayer(handle, health)
		}
	}

	if h.metrics != nil {
		snap := h.metrics.Snapshot()
		if snap.Underruns > 0 && time.Since(snap.LastUpdate) < h.checkInterval {
			h.logger.Warn("underruns observed in last interval", "total_underruns", snap.Underruns)
		}
	}
}
