package buffer

import (
	"github.com/amplimix/amplimix/internal/errors"
)

// ComponentBuffer identifies errors raised by this package.
const ComponentBuffer = "buffer"

var (
	// ErrShapeMismatch is returned when an arithmetic operation is given a
	// buffer with a different channel count or frame count.
	ErrShapeMismatch = errors.New(nil).
				Component(ComponentBuffer).
				Category(errors.CategoryValidation).
				Context("operation", "shape_check").
				Build()

	// ErrOutOfRange is returned by CopyFrom/Slice when the requested window
	// falls outside the buffer's frame count.
	ErrOutOfRange = errors.New(nil).
			Component(ComponentBuffer).
			Category(errors.CategoryValidation).
			Context("operation", "bounds_check").
			Build()
)
