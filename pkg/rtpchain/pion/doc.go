// Package pion runs the packets of a Pion PeerConnection through an rtpchain
// Pipeline.
//
// # Quick Start
//
// Register the factory with the interceptor registry used to build the API:
//
//	import (
//	    "github.com/pion/interceptor"
//	    "github.com/pion/webrtc/v4"
//	    "github.com/thesyncim/rtpchain/pkg/rtpchain"
//	    rtpchainpion "github.com/thesyncim/rtpchain/pkg/rtpchain/pion"
//	)
//
//	func newAPI() (*webrtc.API, *rtpchainpion.InterceptorFactory, error) {
//	    m := &webrtc.MediaEngine{}
//	    if err := m.RegisterDefaultCodecs(); err != nil {
//	        return nil, nil, err
//	    }
//
//	    factory, err := rtpchainpion.NewInterceptorFactory(
//	        rtpchainpion.WithAudioOnly(),
//	        rtpchainpion.WithSeed(func(string) []rtpchain.Interceptor {
//	            return []rtpchain.Interceptor{myInterceptor}
//	        }),
//	    )
//	    if err != nil {
//	        return nil, nil, err
//	    }
//
//	    i := &interceptor.Registry{}
//	    i.Add(factory)
//
//	    api := webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(i))
//	    return api, factory, nil
//	}
//
// Each PeerConnection gets its own rtpchain Registry. Interceptors can be
// added to and removed from it at any time through factory.Registry(id).
//
// # Drops
//
// A dropped outgoing packet is never written; the sender sees a successful
// zero-length write. A dropped incoming packet is skipped and the reader
// returns the next packet that survives the chain.
//
// # Modified packets
//
// Modified packets are encoded again before they continue. An incoming packet
// that grows beyond the reader's buffer fails with io.ErrShortBuffer. An
// outgoing RTCP batch that no longer decodes is sent as it was before the
// chain ran.
package pion
