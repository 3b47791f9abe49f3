// Package interceptors provides ready-made rtpchain interceptors.
//
//   - Logger logs every packet through logrus.
//   - LossSimulator drops every Nth RTP packet to exercise jitter buffers
//     and loss recovery.
//   - Gain scales L16 audio payloads.
//   - Meter counts packets, bytes, loss and reordering per stream.
//   - SSRCFilter restricts another interceptor to a set of sources.
//
// A typical test chain, registered in this order:
//
//	reg.Add(interceptors.NewLogger(logrus.StandardLogger()))
//	loss, _ := interceptors.NewLossSimulator(100)
//	reg.Add(loss)
//	gain, _ := interceptors.NewGain(0.5)
//	reg.Add(gain)
package interceptors
