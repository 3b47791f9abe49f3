package rtpchain

import "strings"

// Well-known RTP header extension URIs.
const (
	// AbsSendTimeURI is the 24-bit abs-send-time extension.
	AbsSendTimeURI = "http://www.webrtc.org/experiments/rtp-hdrext/abs-send-time"

	// AbsCaptureTimeURI is the 64-bit abs-capture-time extension.
	AbsCaptureTimeURI = "http://www.webrtc.org/experiments/rtp-hdrext/abs-capture-time"

	// AudioLevelURI is the RFC 6464 client-to-mixer audio level extension.
	AudioLevelURI = "urn:ietf:params:rtp-hdrext:ssrc-audio-level"

	// SDESMidURI is the RFC 8843 media identification extension.
	SDESMidURI = "urn:ietf:params:rtp-hdrext:sdes:mid"
)

// HeaderExtension is a header extension negotiated for a stream.
type HeaderExtension struct {
	ID  uint8
	URI string
}

// StreamInfo is the sender or receiver context passed next to an RTP packet.
// It describes the negotiated stream; it is not a handle to the connection.
type StreamInfo struct {
	ID               string
	SSRC             uint32
	PayloadType      uint8
	MimeType         string
	ClockRate        uint32
	Channels         uint16
	HeaderExtensions []HeaderExtension
}

// ExtensionID returns the negotiated id for uri, or 0 when the extension was
// not negotiated. Id 0 is reserved by RFC 8285, so 0 always means absent.
func (s *StreamInfo) ExtensionID(uri string) uint8 {
	if s == nil {
		return 0
	}
	for _, ext := range s.HeaderExtensions {
		if ext.URI == uri {
			return ext.ID
		}
	}
	return 0
}

// IsAudio reports whether the stream carries audio, judged by its MIME type.
func (s *StreamInfo) IsAudio() bool {
	return s != nil && strings.HasPrefix(strings.ToLower(s.MimeType), "audio/")
}
