package rtpchain

import "errors"

// Registry errors.
var (
	// ErrNilInterceptor is returned when adding a nil interceptor.
	ErrNilInterceptor = errors.New("rtpchain: nil interceptor")

	// ErrRegistryClosed is returned when adding to a closed registry.
	ErrRegistryClosed = errors.New("rtpchain: registry closed")
)

// Packet errors. A hook result failing validation is never surfaced to the
// caller of a Pipeline; these are returned by the conversion helpers and
// Validate.
var (
	// ErrMalformedRTP indicates an RTP packet that cannot be encoded or decoded.
	ErrMalformedRTP = errors.New("rtpchain: malformed RTP packet")

	// ErrMalformedRTCP indicates an RTCP buffer that fails framing or decoding.
	ErrMalformedRTCP = errors.New("rtpchain: malformed RTCP packet")
)

// ErrNilRegistry is returned by NewPipeline when no registry is given.
var ErrNilRegistry = errors.New("rtpchain: nil registry")
