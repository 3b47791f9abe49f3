package interceptors

import "time"

// DefaultRateWindow is the sliding window used for bitrate measurement.
const DefaultRateWindow = time.Second

type rateSample struct {
	at    time.Time
	bytes int64
}

// rateWindow measures bits per second over a sliding time window.
// It is not safe for concurrent use.
type rateWindow struct {
	size    time.Duration
	samples []rateSample
	total   int64
}

func newRateWindow(size time.Duration) *rateWindow {
	if size <= 0 {
		size = DefaultRateWindow
	}
	return &rateWindow{
		size:    size,
		samples: make([]rateSample, 0, 64),
	}
}

func (r *rateWindow) add(bytes int64, now time.Time) {
	r.expire(now)
	r.samples = append(r.samples, rateSample{at: now, bytes: bytes})
	r.total += bytes
}

// rate returns the bitrate over the samples still in the window. It needs two
// samples at least 1ms apart.
func (r *rateWindow) rate(now time.Time) (int64, bool) {
	r.expire(now)
	if len(r.samples) < 2 {
		return 0, false
	}
	elapsed := r.samples[len(r.samples)-1].at.Sub(r.samples[0].at)
	if elapsed < time.Millisecond {
		return 0, false
	}
	return int64(float64(r.total*8) / elapsed.Seconds()), true
}

func (r *rateWindow) expire(now time.Time) {
	cutoff := now.Add(-r.size)
	n := 0
	for _, s := range r.samples {
		if !s.at.Before(cutoff) {
			break
		}
		r.total -= s.bytes
		n++
	}
	if n > 0 {
		r.samples = r.samples[n:]
	}
}
