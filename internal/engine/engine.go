// Package engine wires the configuration, mixer, device driver, and
// asset registry packages together into the single object a CLI
// command needs: build an Engine from config.Settings, Play sounds
// into it, and run it against a real playback device.
package engine

import (
	"os"

	"github.com/amplimix/amplimix/internal/ambisonic/hrir"
	"github.com/amplimix/amplimix/internal/assets"
	"github.com/amplimix/amplimix/internal/config"
	"github.com/amplimix/amplimix/internal/device"
	"github.com/amplimix/amplimix/internal/errors"
	"github.com/amplimix/amplimix/internal/layer"
	"github.com/amplimix/amplimix/internal/mixer"
	"github.com/amplimix/amplimix/internal/spatial"
)

// Engine bundles one Amplimix orchestrator, its asset registry, and
// (once Run is called) the playback device driving it.
type Engine struct {
	Settings *config.Settings
	Mixer    *mixer.Amplimix
	Registry *assets.Registry

	driver *device.Driver
	dev    *device.Device
}

// New builds an Engine from settings: a default linear-falloff
// attenuation and a single root bus, since neither a soundbank nor a
// bus-tree definition is mandatory input to stand the engine up (spec
// §4.13's orchestrator only requires *a* root bus to exist).
func New(settings *config.Settings) (*Engine, error) {
	reg := assets.NewRegistry()
	reg.RegisterBus(&assets.Bus{ID: 1, Name: "master", StaticGain: settings.Mixer.MasterGain})

	tree, _, err := assets.BuildTree(reg)
	if err != nil {
		return nil, err
	}

	var sphere *hrir.Sphere
	if settings.Mixer.HRIRSpherePath != "" {
		f, err := os.Open(settings.Mixer.HRIRSpherePath)
		if err != nil {
			return nil, errors.Newf("opening HRIR sphere: %v", err).
				Component("engine").
				Category(errors.CategoryFileIO).
				Build()
		}
		defer f.Close()
		sphere, err = hrir.ReadSphere(f)
		if err != nil {
			return nil, err
		}
	}

	attenuation := &spatial.Attenuation{
		Curve: spatial.NewCurve([]spatial.CurvePoint{
			{X: 0, Y: 1},
			{X: 1, Y: 1},
			{X: 100, Y: 0},
		}, nil),
		MaxDistance: 100,
	}

	cfg := mixer.Config{
		SampleRate:        settings.Device.SampleRate,
		BlockSize:         settings.Device.BufferFrames,
		OutputChannels:    settings.Device.Channels,
		LayerCount:        settings.Mixer.LayerPoolSize,
		AmbisonicOrder:    settings.Mixer.AmbisonicOrder,
		Ambisonic3D:       settings.Mixer.Ambisonic3D,
		SpeakerLayout:     settings.Mixer.SpeakerLayout,
		HRIRSphere:        sphere,
		HeadLength:        256,
		HeadSegment:       64,
		TailSegment:       settings.Device.BufferFrames,
		MaxReflectionDistance: 100,
		MasterGainSeconds: 0.05,
		ChainConfig: layer.ChainConfig{
			SoundSpeed:    settings.Mixer.SoundSpeedMPS,
			DopplerFactor: settings.Mixer.DopplerFactor,
		},
		Attenuation: attenuation,
		Metrics:     mixer.NewMetrics(nil, "amplimix"),
	}

	m := mixer.NewAmplimix(cfg, tree.Root)
	m.SetMasterGain(float32(settings.Mixer.MasterGain))

	return &Engine{Settings: settings, Mixer: m, Registry: reg}, nil
}

// sampleFormatFromString maps config.DeviceConfig.SampleFormat's string
// encoding onto device.SampleFormat.
func sampleFormatFromString(s string) device.SampleFormat {
	switch s {
	case "u8":
		return device.FormatU8
	case "i16":
		return device.FormatS16
	case "i24":
		return device.FormatS24
	case "i32":
		return device.FormatS32
	default:
		return device.FormatF32
	}
}

// Run opens a playback device matching Settings.Device and starts it
// pulling from the mixer. Callers must call Close when done.
func (e *Engine) Run() error {
	driver, err := device.OpenDriver()
	if err != nil {
		return err
	}

	desc := device.Description{
		SampleRate:   e.Settings.Device.SampleRate,
		Channels:     e.Settings.Device.Channels,
		Format:       sampleFormatFromString(e.Settings.Device.SampleFormat),
		BufferFrames: e.Settings.Device.BufferFrames,
	}

	dev, err := device.Open(driver, desc, nil, e.Mixer.Mix)
	if err != nil {
		_ = driver.Close()
		return err
	}

	if err := dev.Start(); err != nil {
		dev.Close()
		_ = driver.Close()
		return err
	}

	e.driver = driver
	e.dev = dev
	return nil
}

// Close stops the device and releases the driver, if Run was called.
func (e *Engine) Close() {
	if e.dev != nil {
		_ = e.dev.Stop()
		e.dev.Close()
	}
	if e.driver != nil {
		_ = e.driver.Close()
	}
}

// ListDevices opens a driver just long enough to enumerate playback
// devices, for the "amplimix devices" command.
func ListDevices() ([]string, error) {
	driver, err := device.OpenDriver()
	if err != nil {
		return nil, err
	}
	defer driver.Close()

	infos, err := driver.Devices()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}
