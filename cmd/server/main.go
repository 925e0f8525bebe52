package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gigcraft.ai/internal/config"
	"gigcraft.ai/internal/runs"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.ParseServer(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	eng, err := config.LoadEngine(cfg.ConfigDir, cfg.TuningPath)
	if err != nil {
		logger.Fatalf("load engine: %v", err)
	}
	cats := eng.Catalogs()
	logger.Printf("catalogs %s: %d events, %d arcs, %d temptations, %d venues",
		short(cats.Digest), len(cats.Events.List), len(cats.Arcs.List), len(cats.Temptations.List), len(cats.Venues.List))

	idx, err := openIndex(cfg, logger)
	if err != nil {
		logger.Fatalf("index: %v", err)
	}
	if idx != nil {
		if err := idx.UpsertCatalogs(cats, eng.Tuning()); err != nil {
			logger.Printf("index catalogs: %v", err)
		}
	}

	m, err := runs.NewManager(eng, runs.Config{
		DataDir:       cfg.DataDir,
		SnapshotEvery: cfg.SnapshotEvery,
		Index:         idx,
	})
	if err != nil {
		logger.Fatalf("runs: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	mux := newMux(m, idx, cfg.ReadTimeout, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (data=%s)", cfg.Addr, cfg.DataDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	if err := m.Close(); err != nil {
		logger.Printf("close runs: %v", err)
	}
	if idx != nil {
		flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
		_ = idx.Flush(flushCtx)
		cancelFlush()
		if err := idx.Close(); err != nil {
			logger.Printf("close index: %v", err)
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
