package device

import (
	"runtime"

	"github.com/gen2brain/malgo"

	"github.com/amplimix/amplimix/internal/errors"
)

// backendsForPlatform lists malgo backends to try, in preference
// order, for the current OS (spec §6.1's driver boundary; grounded on
// the teacher's MalgoSource.getBackend, generalized from a single
// best-guess backend to a preference list so InitContext can fall back
// if the platform's primary backend isn't available on this machine).
func backendsForPlatform() []malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return []malgo.Backend{malgo.BackendAlsa, malgo.BackendPulseAudio}
	case "windows":
		return []malgo.Backend{malgo.BackendWasapi}
	case "darwin":
		return []malgo.Backend{malgo.BackendCoreaudio}
	default:
		return []malgo.Backend{malgo.BackendNull}
	}
}

// Driver owns the malgo context: the process-wide handle backend
// enumeration and device opening both need.
type Driver struct {
	ctx *malgo.AllocatedContext
}

// OpenDriver initializes a malgo context against this platform's
// preferred backend list.
func OpenDriver() (*Driver, error) {
	ctx, err := malgo.InitContext(backendsForPlatform(), malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.Newf("init audio context: %v", err).
			Component("device").
			Category(errors.CategoryDevice).
			Build()
	}
	return &Driver{ctx: ctx}, nil
}

// Devices enumerates playback devices visible through this driver's
// backend, for the "amplimix devices" control surface (spec §5's
// "amplimix devices" command).
func (d *Driver) Devices() ([]malgo.DeviceInfo, error) {
	infos, err := d.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, errors.Newf("enumerate playback devices: %v", err).
			Component("device").
			Category(errors.CategoryDevice).
			Build()
	}
	return infos, nil
}

// Close releases the underlying malgo context. Callers must close
// every Device opened from this driver first.
func (d *Driver) Close() error {
	return d.ctx.Uninit()
}
