package rtpchain

import (
	"bytes"
	"fmt"
	"slices"
)

// RTP wire limits enforced by Validate.
const (
	// MaxPayloadType is the largest value the 7-bit PT field can carry.
	MaxPayloadType = 127

	// MaxCSRCs is the largest CSRC count the 4-bit CC field can carry.
	MaxCSRCs = 15

	// MaxExtensionSize is the largest extension element supported by the
	// RFC 8285 two-byte header form.
	MaxExtensionSize = 255

	// rtcpHeaderSize is the size of the RTCP common header.
	rtcpHeaderSize = 4

	rtpVersion = 2
)

// RTPHeader holds the RTP fixed-header fields an interceptor may inspect or
// rewrite.
//
// SequenceNumber and Timestamp are unsigned and wrap modulo 2^16 and 2^32.
// Use SeqDelta, SeqNewer and TimestampDelta for ordering comparisons; plain
// < and > are wrong across a wrap.
type RTPHeader struct {
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	CSRC           []uint32

	// Marker is the M bit. It usually flags the last packet of a video frame
	// or the first packet of an audio talkspurt.
	Marker bool
}

// RTPHeaderExtension is one (id, value) element of the header extension
// block. The order of elements within a packet is significant.
type RTPHeaderExtension struct {
	ID    uint8
	Value []byte
}

// RTPPacket is a self-contained RTP packet value.
//
// Packets are immutable by convention: an interceptor that wants to change a
// packet should build a modified copy (see Clone) rather than writing into
// slices it received, since those may alias the transport's buffers.
type RTPPacket struct {
	Header     RTPHeader
	Payload    []byte
	Extensions []RTPHeaderExtension
}

// Clone returns a deep copy of the packet.
func (p RTPPacket) Clone() RTPPacket {
	out := RTPPacket{
		Header:  p.Header,
		Payload: slices.Clone(p.Payload),
	}
	out.Header.CSRC = slices.Clone(p.Header.CSRC)
	if p.Extensions != nil {
		out.Extensions = make([]RTPHeaderExtension, len(p.Extensions))
		for i, ext := range p.Extensions {
			out.Extensions[i] = RTPHeaderExtension{ID: ext.ID, Value: slices.Clone(ext.Value)}
		}
	}
	return out
}

// Equal reports whether two packets are field-for-field identical, including
// extension order. Nil and empty slices compare equal.
func (p RTPPacket) Equal(o RTPPacket) bool {
	if p.Header.PayloadType != o.Header.PayloadType ||
		p.Header.SequenceNumber != o.Header.SequenceNumber ||
		p.Header.Timestamp != o.Header.Timestamp ||
		p.Header.SSRC != o.Header.SSRC ||
		p.Header.Marker != o.Header.Marker {
		return false
	}
	if !slices.Equal(p.Header.CSRC, o.Header.CSRC) {
		return false
	}
	if !bytes.Equal(p.Payload, o.Payload) {
		return false
	}
	return slices.EqualFunc(p.Extensions, o.Extensions, func(a, b RTPHeaderExtension) bool {
		return a.ID == b.ID && bytes.Equal(a.Value, b.Value)
	})
}

// Extension returns the value of the first extension element with the given
// id, or nil if the packet carries none.
func (p RTPPacket) Extension(id uint8) []byte {
	for _, ext := range p.Extensions {
		if ext.ID == id {
			return ext.Value
		}
	}
	return nil
}

// WithExtension returns a copy of the packet where the element with the given
// id carries value. An existing element keeps its position; a new element is
// appended.
func (p RTPPacket) WithExtension(id uint8, value []byte) RTPPacket {
	exts := make([]RTPHeaderExtension, 0, len(p.Extensions)+1)
	replaced := false
	for _, ext := range p.Extensions {
		if ext.ID == id && !replaced {
			ext.Value = value
			replaced = true
		}
		exts = append(exts, ext)
	}
	if !replaced {
		exts = append(exts, RTPHeaderExtension{ID: id, Value: value})
	}
	p.Extensions = exts
	return p
}

// Validate reports whether the packet can be encoded on the wire.
func (p RTPPacket) Validate() error {
	if p.Header.PayloadType > MaxPayloadType {
		return fmt.Errorf("%w: payload type %d exceeds %d", ErrMalformedRTP, p.Header.PayloadType, MaxPayloadType)
	}
	if len(p.Header.CSRC) > MaxCSRCs {
		return fmt.Errorf("%w: %d CSRCs exceeds %d", ErrMalformedRTP, len(p.Header.CSRC), MaxCSRCs)
	}
	for i, ext := range p.Extensions {
		if ext.ID == 0 {
			return fmt.Errorf("%w: extension %d has reserved id 0", ErrMalformedRTP, i)
		}
		if len(ext.Value) > MaxExtensionSize {
			return fmt.Errorf("%w: extension id %d is %d bytes", ErrMalformedRTP, ext.ID, len(ext.Value))
		}
		for _, prev := range p.Extensions[:i] {
			if prev.ID == ext.ID {
				return fmt.Errorf("%w: duplicate extension id %d", ErrMalformedRTP, ext.ID)
			}
		}
	}
	return nil
}

// RTCPPacket is an opaque RTCP buffer. A compound packet travels through the
// chain as one buffer; the core never splits it.
type RTCPPacket struct {
	Data []byte
}

// Clone returns a deep copy of the packet.
func (p RTCPPacket) Clone() RTCPPacket {
	return RTCPPacket{Data: slices.Clone(p.Data)}
}

// Equal reports whether both packets carry the same bytes.
func (p RTCPPacket) Equal(o RTCPPacket) bool {
	return bytes.Equal(p.Data, o.Data)
}

// Validate checks RTCP framing only: at least one common header, a length that
// is a multiple of 32 bits, and version 2 in the first header. Packet types
// and report contents are not inspected.
func (p RTCPPacket) Validate() error {
	if len(p.Data) < rtcpHeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than a header", ErrMalformedRTCP, len(p.Data))
	}
	if len(p.Data)%4 != 0 {
		return fmt.Errorf("%w: length %d is not a multiple of 4", ErrMalformedRTCP, len(p.Data))
	}
	if v := p.Data[0] >> 6; v != rtpVersion {
		return fmt.Errorf("%w: version %d", ErrMalformedRTCP, v)
	}
	return nil
}
