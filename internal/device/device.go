package device

import (
	"github.com/gen2brain/malgo"

	"github.com/amplimix/amplimix/internal/errors"
)

// malgoFormat maps this package's SampleFormat to malgo's format enum.
func malgoFormat(f SampleFormat) malgo.FormatType {
	switch f {
	case FormatU8:
		return malgo.FormatU8
	case FormatS16:
		return malgo.FormatS16
	case FormatS24:
		return malgo.FormatS24
	case FormatS32:
		return malgo.FormatS32
	case FormatF32:
		return malgo.FormatF32
	default:
		return malgo.FormatS16
	}
}

// Device is an open playback device driven by a MixFunc: every data
// callback malgo fires, Device asks Mix for up to one buffer's worth
// of planar float32 frames and interleaves them into the callback's
// raw output buffer in the device's negotiated format (spec §6.1:
// "The device calls Mix(output_buffer, frame_count) → frames_produced").
type Device struct {
	driver *Driver
	desc   Description
	mix    MixFunc

	dev    *malgo.Device
	planar [][]float32

	underruns uint64
}

// Open negotiates and opens a playback device matching desc, driven by
// mix on every hardware callback. deviceID selects a specific device by
// its malgo.DeviceID; pass nil for the platform default.
func Open(driver *Driver, desc Description, deviceID *malgo.DeviceID, mix MixFunc) (*Device, error) {
	if desc.Channels != 1 && desc.Channels != 2 && desc.Channels != 4 &&
		desc.Channels != 6 && desc.Channels != 8 {
		return nil, errors.Newf("invalid channel count %d, want one of {1,2,4,6,8}", desc.Channels).
			Component("device").
			Category(errors.CategoryValidation).
			Build()
	}

	d := &Device{driver: driver, desc: desc, mix: mix}

	planar := make([][]float32, desc.Channels)
	for c := range planar {
		planar[c] = make([]float32, desc.BufferFrames)
	}
	d.planar = planar

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgoFormat(desc.Format)
	cfg.Playback.Channels = uint32(desc.Channels)
	cfg.SampleRate = uint32(desc.SampleRate)
	cfg.PeriodSizeInFrames = uint32(desc.BufferFrames)
	if deviceID != nil {
		cfg.Playback.DeviceID = deviceID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{Data: d.onData}

	dev, err := malgo.InitDevice(driver.ctx.Context, cfg, callbacks)
	if err != nil {
		return nil, errors.Newf("init playback device: %v", err).
			Component("device").
			Category(errors.CategoryDevice).
			Build()
	}
	d.dev = dev
	return d, nil
}

// Start begins hardware playback; onData begins firing afterward.
func (d *Device) Start() error {
	if err := d.dev.Start(); err != nil {
		return errors.Newf("start playback device: %v", err).
			Component("device").
			Category(errors.CategoryDevice).
			Build()
	}
	return nil
}

// Stop halts hardware playback without releasing the device.
func (d *Device) Stop() error {
	if err := d.dev.Stop(); err != nil {
		return errors.Newf("stop playback device: %v", err).
			Component("device").
			Category(errors.CategoryDevice).
			Build()
	}
	return nil
}

// Close stops and releases the device. It does not close the Driver.
func (d *Device) Close() {
	d.dev.Uninit()
}

// Underruns reports how many callbacks Mix has fallen short of the
// requested frame count for (it zero-fills the remainder before
// handing the buffer back to the hardware).
func (d *Device) Underruns() uint64 { return d.underruns }

// onData is malgo's per-block data callback. It never allocates once
// the device is running: d.planar is sized once, in Open, to
// desc.BufferFrames.
func (d *Device) onData(output, _ []byte, frameCount uint32) {
	frames := int(frameCount)
	if frames > d.desc.BufferFrames {
		frames = d.desc.BufferFrames
	}

	for c := range d.planar {
		for i := range d.planar[c][:frames] {
			d.planar[c][i] = 0
		}
	}

	produced := d.mix(d.planar, frames)
	if produced < frames {
		d.underruns++
		for c := range d.planar {
			for i := produced; i < frames; i++ {
				d.planar[c][i] = 0
			}
		}
	}

	interleave(output, d.planar, frames, d.desc.Format)
}
