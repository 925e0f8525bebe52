package main

import (
	"log"
	"net/http"
	"net/http/pprof"
	"time"

	"gigcraft.ai/internal/persistence/indexdb"
	"gigcraft.ai/internal/runs"
	"gigcraft.ai/internal/transport/observer"
	"gigcraft.ai/internal/transport/ws"
)

func newMux(m *runs.Manager, idx *indexdb.SQLiteIndex, readTimeout time.Duration, logger *log.Logger) *http.ServeMux {
	obsSrv := observer.NewServer(m, idx, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		writeMetrics(rw, m, idx)
	})
	mux.HandleFunc("GET /v1/runs", obsSrv.RunsHandler())
	mux.HandleFunc("GET /v1/runs/{id}", obsSrv.RunHandler())
	mux.HandleFunc("GET /v1/leaderboard", obsSrv.LeaderboardHandler())
	if envBool("GIGCRAFT_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else if logger != nil {
		logger.Printf("pprof endpoints disabled (GIGCRAFT_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(m, idx, readTimeout, logger).Handler())
	return mux
}
