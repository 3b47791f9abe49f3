package rtpchain

// SeqDelta returns the signed distance from prev to curr, treating sequence
// numbers as points on a 2^16 circle. The result is in [-32768, 32767]:
// SeqDelta(65535, 0) is 1 and SeqDelta(0, 65535) is -1.
func SeqDelta(prev, curr uint16) int32 {
	return int32(int16(curr - prev))
}

// SeqNewer reports whether a comes after b, using half-range comparison. The
// two values exactly half a cycle apart are ordered by the unsigned difference,
// so SeqNewer(a, b) and SeqNewer(b, a) are never both true.
func SeqNewer(a, b uint16) bool {
	d := a - b
	if d == 0x8000 {
		return a > b
	}
	return d != 0 && d < 0x8000
}

// TimestampDelta returns the signed distance from prev to curr on the 2^32
// RTP timestamp circle.
func TimestampDelta(prev, curr uint32) int64 {
	return int64(int32(curr - prev))
}

// TimestampNewer reports whether a comes after b on the RTP timestamp circle.
func TimestampNewer(a, b uint32) bool {
	d := a - b
	if d == 0x80000000 {
		return a > b
	}
	return d != 0 && d < 0x80000000
}

// SeqUnwrapper extends 16-bit sequence numbers to a monotonic 64-bit count
// so that loss and reordering can be measured across wraps. The zero value is
// ready to use. It is not safe for concurrent use.
type SeqUnwrapper struct {
	last    int64
	started bool
}

// Unwrap returns the extended sequence number for seq.
func (u *SeqUnwrapper) Unwrap(seq uint16) int64 {
	if !u.started {
		u.started = true
		u.last = int64(seq)
		return u.last
	}
	u.last += int64(SeqDelta(uint16(u.last), seq))
	return u.last
}
