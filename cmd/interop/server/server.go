// Package server runs a Pion WebRTC endpoint whose audio passes through an
// rtpchain interceptor chain. Browsers connect through a small HTML page;
// the chain's counters are served as JSON and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/interceptors"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/metrics"
	rtpchainpion "github.com/thesyncim/rtpchain/pkg/rtpchain/pion"
)

// Server is an importable HTTP server for interop testing.
type Server struct {
	cfg  Config
	log  *logrus.Logger
	api  *webrtc.API
	pion *rtpchainpion.InterceptorFactory

	httpServer *http.Server
	mu         sync.Mutex
	addr       string
	running    bool
}

// NewServer creates a server. The server is not started until Start is
// called. A nil logger uses logrus's standard logger.
func NewServer(cfg Config, log *logrus.Logger) (*Server, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{cfg: cfg, log: log}

	factory, err := s.newFactory()
	if err != nil {
		return nil, err
	}
	s.pion = factory

	api, err := newAPI(factory)
	if err != nil {
		return nil, err
	}
	s.api = api

	registry := prometheus.NewRegistry()
	if err := registry.Register(metrics.NewCollector(factory.Pipelines, cfg.Chain.MetricsNamespace)); err != nil {
		return nil, fmt.Errorf("register collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(HTMLPage))
	})
	mux.HandleFunc("/offer", s.HandleOffer)
	mux.HandleFunc("/stats", s.HandleStats)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return s, nil
}

// newFactory builds the rtpchain factory. Each connection gets its own
// Meter, and optionally a packet logger, loss simulator and gain stage.
func (s *Server) newFactory() (*rtpchainpion.InterceptorFactory, error) {
	chain := s.cfg.Chain

	var loss *interceptors.LossSimulator
	if chain.LossEvery > 0 {
		var err error
		if loss, err = interceptors.NewLossSimulator(chain.LossEvery, interceptors.IncomingOnly()); err != nil {
			return nil, err
		}
	}
	var gain *interceptors.Gain
	if chain.Gain != 1 {
		var err error
		if gain, err = interceptors.NewGain(chain.Gain); err != nil {
			return nil, err
		}
	}

	opts := []rtpchainpion.FactoryOption{
		rtpchainpion.WithLoggerFactory(rtpchain.LogrusLoggerFactory(s.log)),
		rtpchainpion.WithSeed(func(string) []rtpchain.Interceptor {
			seed := []rtpchain.Interceptor{interceptors.NewMeter()}
			if chain.LogPackets {
				seed = append(seed, interceptors.NewLogger(s.log))
			}
			if loss != nil {
				seed = append(seed, loss)
			}
			if gain != nil {
				seed = append(seed, l16Only(gain))
			}
			return seed
		}),
		rtpchainpion.WithOnConnection(func(id string, c *rtpchainpion.Interceptor) {
			s.log.WithFields(logrus.Fields{
				"connection": id,
				"chain":      c.Registry().Len(),
			}).Info("connection intercepted")
		}),
	}
	if chain.AudioOnly {
		opts = append(opts, rtpchainpion.WithAudioOnly())
	}
	if chain.StrictRTCP {
		opts = append(opts, rtpchainpion.WithPipelineOptions(rtpchain.WithStrictRTCP()))
	}
	return rtpchainpion.NewInterceptorFactory(opts...)
}

// l16Only applies i to incoming L16 streams and passes every other packet
// through. Browsers send Opus, which must not be scaled.
func l16Only(i rtpchain.Interceptor) rtpchain.Interceptor {
	return &rtpchain.Funcs{
		IncomingRTP: func(pkt rtpchain.RTPPacket, info *rtpchain.StreamInfo) rtpchain.RTPResult {
			if info == nil || !strings.EqualFold(info.MimeType, "audio/L16") {
				return rtpchain.Keep(pkt)
			}
			return i.InterceptIncomingRTP(pkt, info)
		},
	}
}

// newAPI builds the Pion API shared by every connection.
func newAPI(factory *rtpchainpion.InterceptorFactory) (*webrtc.API, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}
	if err := m.RegisterHeaderExtension(webrtc.RTPHeaderExtensionCapability{
		URI: rtpchain.AudioLevelURI,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, fmt.Errorf("register audio level extension: %w", err)
	}

	i := &interceptor.Registry{}
	i.Add(factory)

	// RTCP reports after the chain so they describe what the application saw.
	if err := webrtc.ConfigureRTCPReports(i); err != nil {
		return nil, fmt.Errorf("configure RTCP reports: %w", err)
	}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(i),
	), nil
}

// Factory returns the rtpchain factory the server's connections use.
func (s *Server) Factory() *rtpchainpion.InterceptorFactory {
	return s.pion
}

// Start begins listening and returns the address in use, which differs from
// the configured one when the port is 0. Start does not block.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.addr, nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", fmt.Errorf("listen: %w", err)
	}
	s.addr = ln.Addr().String()
	s.running = true

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("http server stopped")
		}
	}()
	return s.addr, nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
