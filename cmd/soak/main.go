// Soak test runner for the interceptor chain.
//
// Several goroutines push RTP and RTCP through one pipeline while another
// keeps adding and removing interceptors. The runner watches heap growth and
// checks that every counter in the chain agrees with what the senders saw.
//
// Usage:
//
//	go run ./cmd/soak -duration 1h
//	go run ./cmd/soak -duration 10m -passers 8 -churn 1ms
//
// Exposes pprof endpoint at :6060 for live profiling:
//
//	curl http://localhost:6060/debug/pprof/heap > heap.pprof
//	go tool pprof heap.pprof
package main

import (
	"context"
	"flag"
	"errors"
	"fmt"
	"math"
	"net/http"
	_ "net/http/pprof" // Enable pprof endpoints
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/interceptors"
	"github.com/thesyncim/rtpchain/pkg/rtpchain/testutil"
)

const (
	payloadSize    = 160
	statusInterval = time.Minute
	heapLimitMB    = 100
)

// SoakResult contains the results of a soak test run.
type SoakResult struct {
	Duration      time.Duration
	Passes        uint64
	Delivered     uint64
	Dropped       uint64
	RTCPPasses    uint64
	Corrupted     uint64
	ChainChanges  uint64
	PeakHeapMB    float64
	TotalGCCycles uint32
	Mismatches    []string
	Status        string
}

type config struct {
	duration  time.Duration
	passers   int
	churn     time.Duration
	lossEvery uint
}

func (c config) validate() error {
	if c.passers < 1 {
		return errors.New("-passers must be at least 1")
	}
	if c.churn <= 0 {
		return errors.New("-churn must be positive")
	}
	if c.lossEvery < 1 || c.lossEvery > math.MaxUint16 {
		return fmt.Errorf("-loss-every must be in [1, %d], got %d", math.MaxUint16, c.lossEvery)
	}
	return nil
}

func main() {
	var cfg config
	flag.DurationVar(&cfg.duration, "duration", time.Hour, "Test duration (e.g., 10m, 24h)")
	flag.IntVar(&cfg.passers, "passers", 4, "Goroutines pushing packets")
	flag.DurationVar(&cfg.churn, "churn", time.Millisecond, "Interval between chain changes")
	flag.UintVar(&cfg.lossEvery, "loss-every", 50, "Drop RTP with seq % N == 0")
	pprofPort := flag.Int("pprof-port", 6060, "Port for pprof HTTP server")
	flag.Parse()
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "soak: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("rtpchain Soak Test Runner\n")
	fmt.Printf("=========================\n")
	fmt.Printf("Duration: %v\n", cfg.duration)
	fmt.Printf("Passers:  %d\n", cfg.passers)
	fmt.Printf("Churn:    %v\n", cfg.churn)
	fmt.Printf("Pprof:    http://localhost:%d/debug/pprof/\n", *pprofPort)
	fmt.Printf("\n")

	go func() {
		addr := fmt.Sprintf(":%d", *pprofPort)
		if err := http.ListenAndServe(addr, nil); err != nil {
			fmt.Printf("Warning: pprof server failed: %v\n", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.duration)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived %v, shutting down gracefully...\n", sig)
		cancel()
	}()

	result, err := runSoakTest(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "soak: %v\n", err)
		os.Exit(2)
	}
	printSummary(result)

	if result.Status == "PASS" {
		os.Exit(0)
	}
	os.Exit(1)
}

func runSoakTest(ctx context.Context, cfg config) (SoakResult, error) {
	result := SoakResult{Status: "PASS"}
	if err := cfg.validate(); err != nil {
		return result, err
	}

	// Warnings only: a panic or malformed result would otherwise be counted
	// and logged per packet.
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	reg := rtpchain.NewRegistry(rtpchain.WithID("soak"))
	pipeline, err := rtpchain.NewPipeline(reg, rtpchain.WithLoggerFactory(rtpchain.LogrusLoggerFactory(log)))
	if err != nil {
		return result, err
	}

	meter := interceptors.NewMeter()
	loss, err := interceptors.NewLossSimulator(uint16(cfg.lossEvery), interceptors.IncomingOnly())
	if err != nil {
		return result, err
	}
	for _, i := range []rtpchain.Interceptor{meter, loss} {
		if err := reg.Add(i); err != nil {
			return result, err
		}
	}

	var (
		delivered atomic.Uint64
		dropped   atomic.Uint64
		rtcp      atomic.Uint64
		corrupted atomic.Uint64
		changes   atomic.Uint64
		wg        sync.WaitGroup
	)

	for p := 0; p < cfg.passers; p++ {
		wg.Add(1)
		go func(ssrc uint32) {
			defer wg.Done()
			var seq uint16
			rr := testutil.ReceiverReport(ssrc, ssrc+1)
			for ctx.Err() == nil {
				seq++
				out, ok := pipeline.IncomingRTP(testutil.RTP(ssrc, seq, payloadSize), nil).Get()
				if !ok {
					dropped.Add(1)
					continue
				}
				delivered.Add(1)
				if out.Header.SSRC != ssrc || out.Header.SequenceNumber != seq {
					corrupted.Add(1)
					fmt.Printf("ERROR: packet for ssrc %d seq %d came back as ssrc %d seq %d\n",
						ssrc, seq, out.Header.SSRC, out.Header.SequenceNumber)
				}
				if seq%16 == 0 {
					pipeline.OutgoingRTCP(rr)
					rtcp.Add(1)
				}
			}
		}(uint32(p + 1))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cfg.churn)
		defer ticker.Stop()

		probe := testutil.NewProbe("churn", nil)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if reg.Len() == 2 {
				_ = reg.Add(probe)
			} else {
				reg.Remove(probe)
			}
			changes.Add(1)
		}
	}()

	var memStats runtime.MemStats
	startTime := time.Now()
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	fmt.Printf("[%s] Starting soak test...\n", formatDuration(0))

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case now := <-ticker.C:
			runtime.ReadMemStats(&memStats)
			heapMB := float64(memStats.HeapAlloc) / (1024 * 1024)
			if heapMB > result.PeakHeapMB {
				result.PeakHeapMB = heapMB
			}
			result.TotalGCCycles = memStats.NumGC

			fmt.Printf("[%s] Delivered: %d, Dropped: %d, Chain changes: %d, HeapAlloc: %.2f MB, NumGC: %d\n",
				formatDuration(now.Sub(startTime)),
				delivered.Load(), dropped.Load(), changes.Load(), heapMB, memStats.NumGC)

			if heapMB > heapLimitMB {
				fmt.Printf("ERROR: Memory limit exceeded: %.2f MB\n", heapMB)
				result.Status = "FAIL"
			}
		}
	}
	wg.Wait()

	result.Duration = time.Since(startTime)
	result.Delivered = delivered.Load()
	result.Dropped = dropped.Load()
	result.RTCPPasses = rtcp.Load()
	result.Corrupted = corrupted.Load()
	result.ChainChanges = changes.Load()
	result.Passes = result.Delivered + result.Dropped

	result.Mismatches = verify(result, pipeline.Stats(), meter, loss, cfg.passers)
	if len(result.Mismatches) > 0 {
		result.Status = "FAIL"
	}
	return result, nil
}

// verify cross-checks the senders' view against the chain's counters.
func verify(r SoakResult, stats rtpchain.Stats, meter *interceptors.Meter, loss *interceptors.LossSimulator, passers int) []string {
	var bad []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			bad = append(bad, fmt.Sprintf(format, args...))
		}
	}

	check(r.Corrupted == 0, "%d packets came back with another ssrc or seq", r.Corrupted)

	in := stats[rtpchain.IncomingRTPEvent]
	check(in.Passes == r.Passes, "pipeline passes %d, senders saw %d", in.Passes, r.Passes)
	check(in.Dropped == r.Dropped, "pipeline drops %d, senders saw %d", in.Dropped, r.Dropped)
	check(loss.Dropped() == r.Dropped, "loss simulator drops %d, senders saw %d", loss.Dropped(), r.Dropped)
	check(stats[rtpchain.OutgoingRTCPEvent].Passes == r.RTCPPasses,
		"pipeline RTCP passes %d, senders sent %d", stats[rtpchain.OutgoingRTCPEvent].Passes, r.RTCPPasses)

	for _, ev := range rtpchain.Events {
		check(stats[ev].Panics == 0, "%s: %d panics", ev, stats[ev].Panics)
		check(stats[ev].Malformed == 0, "%s: %d malformed results", ev, stats[ev].Malformed)
	}

	var metered uint64
	streams := meter.All()
	for _, s := range streams {
		metered += s.Packets
	}
	check(len(streams) == passers, "meter tracks %d streams, want %d", len(streams), passers)
	check(metered == r.Passes, "meter counted %d packets, senders sent %d", metered, r.Passes)
	return bad
}

func printSummary(result SoakResult) {
	fmt.Printf("\n")
	fmt.Printf("Soak Test Complete\n")
	fmt.Printf("==================\n")
	fmt.Printf("Duration:          %v\n", result.Duration.Round(time.Second))
	fmt.Printf("RTP passes:        %d\n", result.Passes)
	fmt.Printf("Delivered:         %d\n", result.Delivered)
	fmt.Printf("Dropped:           %d\n", result.Dropped)
	fmt.Printf("RTCP passes:       %d\n", result.RTCPPasses)
	fmt.Printf("Corrupted:         %d\n", result.Corrupted)
	fmt.Printf("Chain changes:     %d\n", result.ChainChanges)
	fmt.Printf("Peak HeapAlloc:    %.2f MB\n", result.PeakHeapMB)
	fmt.Printf("Total GC cycles:   %d\n", result.TotalGCCycles)
	fmt.Printf("Status:            %s\n", result.Status)
	fmt.Printf("\n")

	fmt.Printf("Pass Criteria:\n")
	fmt.Printf("  - Counters agree:        %s\n", checkMark(len(result.Mismatches) == 0))
	fmt.Printf("  - Peak memory < %d MB:  %s\n", heapLimitMB, checkMark(result.PeakHeapMB < heapLimitMB))
	for _, m := range result.Mismatches {
		fmt.Printf("    %s\n", m)
	}
}

func formatDuration(d time.Duration) string {
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func checkMark(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
