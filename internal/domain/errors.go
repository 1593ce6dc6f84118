package domain

import "errors"

var (
	// ErrInvalidArgument marks an absent or malformed argument: a missing
	// probe location or time, mismatched array lengths, a non-monotonic
	// vertical coordinate, or a Data value of the wrong variant.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientData marks input that cannot produce a single valid
	// vertical level.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnsupportedShape marks a wire message whose declared type is not a
	// known sounding encoding.
	ErrUnsupportedShape = errors.New("unsupported sounding shape")
)
