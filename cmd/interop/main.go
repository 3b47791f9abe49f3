// Interop test server.
//
// The server receives browser audio over Pion WebRTC and runs it through an
// rtpchain interceptor chain. Open the page, start a call and watch /stats or
// /metrics.
//
// Configuration comes from an optional YAML file and INTEROP_* environment
// variables; run with -help to list them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sirupsen/logrus"

	"github.com/thesyncim/rtpchain/cmd/interop/server"
)

func main() {
	fs := flag.NewFlagSet("interop", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	fs.Usage = cleanenv.FUsage(fs.Output(), &server.Config{}, nil, fs.Usage)
	_ = fs.Parse(os.Args[1:])

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create server")
	}
	addr, err := srv.Start()
	if err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
	log.WithFields(logrus.Fields{
		"addr":       addr,
		"loss_every": cfg.Chain.LossEvery,
		"gain":       cfg.Chain.Gain,
	}).Info("listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.WithField("signal", sig.String()).Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}

func newLogger(cfg server.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	log := logrus.New()
	log.SetLevel(level)
	switch cfg.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return log, nil
}
