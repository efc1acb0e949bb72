package mixer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/amplimix/amplimix/internal/layer"
)

func TestHealthMonitorStartsHealthyAndTracksLevel(t *testing.T) {
	hm := NewHealthMonitor(HealthMonitorConfig{
		SilenceThresholdDB: -60,
		SilenceTimeout:     time.Millisecond,
		CheckInterval:      time.Second,
		OnSilenceAction:    SilenceActionReap,
	}, nil)

	handle := layer.ID{Index: 1, Gen: 1}
	hm.Track(handle)
	assert.True(t, hm.Healthy(handle))
	assert.Equal(t, 1, hm.ActiveCount())

	hm.UpdateLevel(handle, 0) // loud: stays healthy
	assert.True(t, hm.Healthy(handle))
}

func TestHealthMonitorMarksForReapAfterSilenceTimeout(t *testing.T) {
	hm := NewHealthMonitor(HealthMonitorConfig{
		SilenceThresholdDB: -60,
		SilenceTimeout:     time.Millisecond,
		CheckInterval:      time.Second,
		OnSilenceAction:    SilenceActionReap,
	}, nil)

	handle := layer.ID{Index: 2, Gen: 1}
	hm.Track(handle)
	time.Sleep(2 * time.Millisecond)
	hm.UpdateLevel(handle, -80) // below threshold, past timeout

	assert.False(t, hm.Healthy(handle))
	assert.True(t, hm.IsMarkedForReap(handle))
	assert.False(t, hm.IsMarkedForReap(handle)) // cleared after first read
}

func TestHealthMonitorUntrackRemovesLayer(t *testing.T) {
	hm := NewHealthMonitor(DefaultHealthMonitorConfig(), nil)
	handle := layer.ID{Index: 3, Gen: 1}
	hm.Track(handle)
	hm.Untrack(handle)
	assert.Equal(t, 0, hm.ActiveCount())
	assert.True(t, hm.Healthy(handle)) // untracked defaults to healthy
}

func TestHealthMonitorUpdateLevelIgnoresUntrackedHandle(t *testing.T) {
	hm := NewHealthMonitor(DefaultHealthMonitorConfig(), nil)
	handle := layer.ID{Index: 4, Gen: 1}
	hm.UpdateLevel(handle, -100) // no panic, no-op
	assert.Equal(t, 0, hm.ActiveCount())
}
