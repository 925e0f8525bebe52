package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gigcraft.ai/internal/autopilot"
	"gigcraft.ai/internal/config"
	"gigcraft.ai/internal/persistence/indexdb"
	"gigcraft.ai/internal/runs"
	"gigcraft.ai/internal/sim/engine"
	"gigcraft.ai/internal/transport/observer"
)

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func TestRoutes_RunsMetricsLeaderboard(t *testing.T) {
	configs := filepath.Join("..", "..", "configs")
	eng, err := config.LoadEngine(configs, config.TuningPath(configs, ""))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	dir := t.TempDir()
	idx, err := indexdb.OpenSQLite(filepath.Join(dir, "index", "runs.sqlite"))
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	defer idx.Close()
	m, err := runs.NewManager(eng, runs.Config{DataDir: dir, Index: idx})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer m.Close()

	r, err := m.Create(engine.NewGameOptions{RunID: "run-routes", Seed: 3, BandName: "Static"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 5000 && !r.State().IsGameOver; i++ {
		if _, _, err := r.Apply(autopilot.Next(eng, r.State(), i)); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if !r.State().IsGameOver {
		t.Fatalf("run did not finish")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	srv := httptest.NewServer(newMux(m, idx, time.Minute, nil))
	defer srv.Close()

	if code, body := get(t, srv.URL+"/healthz"); code != 200 || string(body) != "ok" {
		t.Fatalf("healthz: %d %s", code, body)
	}

	code, body := get(t, srv.URL+"/v1/runs")
	if code != 200 || !strings.Contains(string(body), "run-routes") {
		t.Fatalf("runs: %d %s", code, body)
	}

	code, body = get(t, srv.URL+"/v1/runs/run-routes")
	var sum observer.RunSummary
	if code != 200 || json.Unmarshal(body, &sum) != nil {
		t.Fatalf("run: %d %s", code, body)
	}
	if !sum.GameOver || sum.Ending == nil || sum.BandName != "Static" || sum.State != nil {
		t.Fatalf("summary: %+v", sum)
	}
	if code, body = get(t, srv.URL+"/v1/runs/run-routes?full=1"); code != 200 || !strings.Contains(string(body), `"state":{`) {
		t.Fatalf("full run: %d", code)
	}
	if code, _ := get(t, srv.URL+"/v1/runs/missing"); code != http.StatusNotFound {
		t.Fatalf("missing run: %d", code)
	}

	code, body = get(t, srv.URL+"/v1/leaderboard?limit=3")
	var lb struct {
		Entries []indexdb.EndingRow `json:"entries"`
	}
	if code != 200 || json.Unmarshal(body, &lb) != nil || len(lb.Entries) != 1 || lb.Entries[0].RunID != "run-routes" {
		t.Fatalf("leaderboard: %d %s", code, body)
	}

	code, body = get(t, srv.URL+"/metrics")
	if code != 200 || !strings.Contains(string(body), "gigcraft_runs_live 1") || !strings.Contains(string(body), "gigcraft_index_queue_capacity") {
		t.Fatalf("metrics: %s", body)
	}
}
