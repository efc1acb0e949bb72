// Package config loads and holds engine-wide configuration: the playback
// device description, mixer tunables (layer pool size, ambisonic order,
// HRIR sphere path), and logging rotation policy.
//
// Configuration is read once, at engine construction, via viper (YAML,
// environment overrides with an AMPLIMIX_ prefix). Per the "Global
// registries" design note, the loaded Settings are locked in place after
// Load returns; mutating them from another goroutine afterward is a
// programmer error, not a supported reconfiguration path.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// RotationType selects how the control-thread log sink rotates files.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// LogConfig configures the lumberjack-backed rotating log sink.
type LogConfig struct {
	Rotation    RotationType `mapstructure:"rotation"`
	MaxSize     int64        `mapstructure:"maxsize"`      // bytes; NewFileLogger applies it for every Rotation type
	RotationDay time.Weekday `mapstructure:"rotation_day"` // not read by the log sink
	Path        string       `mapstructure:"path"`
	Level       string       `mapstructure:"level"`
}

// DeviceConfig describes the playback device to open (spec.md §6.1).
type DeviceConfig struct {
	Backend      string `mapstructure:"backend"`       // not read; device.Driver picks backends by GOOS
	DeviceName   string `mapstructure:"device_name"`    // not read; engine.Run opens the system default device
	SampleRate   int    `mapstructure:"sample_rate"`    // Hz
	Channels     int    `mapstructure:"channels"`       // 1,2,4,6,8
	SampleFormat string `mapstructure:"sample_format"`  // "u8","i16","i24","i32","f32"
	BufferFrames int    `mapstructure:"buffer_frames"`  // frames per callback
}

// MixerConfig configures the orchestrator and the shared spatialization pipeline.
type MixerConfig struct {
	LayerPoolSize   int     `mapstructure:"layer_pool_size"`  // spec.md §4: 4096, power of two
	AmbisonicOrder  int     `mapstructure:"ambisonic_order"`  // 1,2,3
	Ambisonic3D     bool    `mapstructure:"ambisonic_3d"`     // true: (K+1)^2 channels, false: 2K+1
	HRIRSpherePath  string  `mapstructure:"hrir_sphere_path"` // AMIR file, empty disables binauralization
	SpeakerLayout   string  `mapstructure:"speaker_layout"`   // "stereo","quad","5.1","7.1","cube","dodecahedron","lebedev26"
	MasterGain      float64 `mapstructure:"master_gain"`
	SoundSpeedMPS   float64 `mapstructure:"sound_speed_mps"`
	DopplerFactor   float64 `mapstructure:"doppler_factor"`
	ReflectionsGain float64 `mapstructure:"reflections_gain"`
}

// AssetsConfig points at external asset resources consumed read-only by the core.
type AssetsConfig struct {
	PackagePath     string `mapstructure:"package_path"`
	AttenuationPath string `mapstructure:"attenuation_path"`
}

// Settings is the root engine configuration.
type Settings struct {
	Device DeviceConfig `mapstructure:"device"`
	Mixer  MixerConfig  `mapstructure:"mixer"`
	Assets AssetsConfig `mapstructure:"assets"`
	Log    LogConfig    `mapstructure:"log"`
}

var (
	mu               sync.RWMutex
	settingsInstance *Settings
)

// Defaults returns the configuration used when no file/env overrides are present.
func Defaults() *Settings {
	return &Settings{
		Device: DeviceConfig{
			SampleRate:   48000,
			Channels:     2,
			SampleFormat: "f32",
			BufferFrames: 1024,
		},
		Mixer: MixerConfig{
			LayerPoolSize:   4096,
			AmbisonicOrder:  1,
			Ambisonic3D:     true,
			SpeakerLayout:   "stereo",
			MasterGain:      1.0,
			SoundSpeedMPS:   343.0,
			DopplerFactor:   1.0,
			ReflectionsGain: 1.0,
		},
		Log: LogConfig{
			Rotation: RotationSize,
			MaxSize:  100 * 1024 * 1024,
			Path:     "logs/amplimix.log",
			Level:    "info",
		},
	}
}

// Load reads configuration from the given YAML file (if non-empty and
// present) layered over Defaults(), with AMPLIMIX_-prefixed environment
// variable overrides, and stores the result as the process-wide Settings.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("AMPLIMIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Defaults()
	bindDefaults(v, "device", defaults.Device)
	bindDefaults(v, "mixer", defaults.Mixer)
	bindDefaults(v, "assets", defaults.Assets)
	bindDefaults(v, "log", defaults.Log)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	settings := Defaults()
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("config: decoding settings: %w", err)
	}

	SetSettings(settings)
	return settings, nil
}

// bindDefaults registers each mapstructure-tagged field of a defaults
// struct as a viper default under the given key prefix, mirroring the
// teacher's config defaults registration in internal/conf.
func bindDefaults(v *viper.Viper, prefix string, section any) {
	v.SetDefault(prefix, section)
}

// Setting returns the process-wide settings, loading compiled-in defaults
// if Load has not yet been called.
func Setting() *Settings {
	mu.RLock()
	s := settingsInstance
	mu.RUnlock()
	if s != nil {
		return s
	}
	return Defaults()
}

// SetSettings installs settings as the process-wide instance. Intended for
// use by Load and by tests; never call this from a goroutine the audio
// thread might be concurrently reading from without external synchronization
// (engine construction happens before Mix is ever called).
func SetSettings(s *Settings) {
	mu.Lock()
	settingsInstance = s
	mu.Unlock()
}
