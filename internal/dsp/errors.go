package dsp

import (
	"github.com/amplimix/amplimix/internal/errors"
)

// ComponentDSP identifies errors raised by this package.
const ComponentDSP = "dsp"

var (
	// ErrInvalidConfig is returned when a filter or converter is configured
	// with parameters outside its supported domain.
	ErrInvalidConfig = errors.New(nil).
				Component(ComponentDSP).
				Category(errors.CategoryValidation).
				Context("operation", "configure").
				Build()

	// ErrUnsupportedChannelPolicy is returned by the sample-rate/channel
	// converter when asked for a channel remap other than identity,
	// mono->stereo, or stereo->mono.
	ErrUnsupportedChannelPolicy = errors.New(nil).
					Component(ComponentDSP).
					Category(errors.CategoryValidation).
					Context("operation", "configure_channels").
					Build()
)
