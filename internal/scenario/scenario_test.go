package scenario

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/engine"
	"gigcraft.ai/internal/sim/tuning"
)

func quietEngine(t *testing.T) *engine.Engine {
	t.Helper()
	venues := []catalogs.Venue{{ID: "bar", Name: "Bar", Capacity: 80, Guarantee: 50}}
	cats, err := catalogs.New(nil, nil, nil, venues, catalogs.Names{})
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	eng, err := engine.New(tuning.Defaults(), cats)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng
}

func TestLoadString_BuildsSteps(t *testing.T) {
	sc, err := LoadString("inline", `
local s = Scenario.new("", {seed = 42, difficulty = "easy", band = "Paper Moons"})
s:turn("practice")
s:record({kind = "record", studio = "local", weeks = 3, songs = {"song-1", "song-2"}})
s:expect("money", ">=", 10)
return s
`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "inline" || sc.Seed != 42 || sc.Difficulty != "easy" || sc.BandName != "Paper Moons" {
		t.Fatalf("scenario: %+v", sc)
	}
	if len(sc.Steps) != 3 {
		t.Fatalf("steps: %+v", sc.Steps)
	}
	if sc.Steps[0].Args["action"] != "PRACTICE" {
		t.Fatalf("turn args: %+v", sc.Steps[0].Args)
	}
	songs, ok := sc.Steps[1].Args["songs"].([]any)
	if !ok || len(songs) != 2 || songs[1] != "song-2" || sc.Steps[1].Args["weeks"] != 3 {
		t.Fatalf("record args: %+v", sc.Steps[1].Args)
	}
	if sc.Steps[2].Args["value"] != 10 {
		t.Fatalf("expect args: %+v", sc.Steps[2].Args)
	}
}

func TestLoadString_MustReturnScenario(t *testing.T) {
	if _, err := LoadString("bad", `return 5`); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := LoadString("bad", `error("boom")`); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRun_StrictAssertions(t *testing.T) {
	eng := quietEngine(t)
	sc, err := LoadString("quiet", `
local s = Scenario.new("quiet", {seed = 7})
s:turn("RECORD_WEEK", {error = "E_UNAVAILABLE"})
s:turn("REST")
s:expect("week", "==", 2)
s:expect("health", ">", 80)
s:turns("PRACTICE", 3)
s:expect("week", "==", 5)
s:expect("pending", "==", "")
return s
`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	res, err := Run(context.Background(), eng, Config{}, sc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Commands != 4 || res.State.Week != 5 || len(res.Failures) != 0 {
		t.Fatalf("result: commands=%d week=%d failures=%v", res.Commands, res.State.Week, res.Failures)
	}

	sc.Steps = append(sc.Steps, Step{Kind: "expect", Args: map[string]any{"field": "week", "op": "==", "value": 99}})
	if _, err := Run(context.Background(), eng, Config{}, sc); !errors.Is(err, ErrAssertion) {
		t.Fatalf("strict: %v", err)
	}
	res, err = Run(context.Background(), eng, Config{Assertions: AssertionLogOnly}, sc)
	if err != nil || len(res.Failures) != 1 {
		t.Fatalf("log only: err=%v failures=%v", err, res.Failures)
	}
}

func TestRun_ShippedScenarios(t *testing.T) {
	cats, err := catalogs.Load(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	eng, err := engine.New(tuning.Defaults(), cats)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	paths, err := filepath.Glob(filepath.Join("..", "..", "scenarios", "*.lua"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("scenarios: %v %v", paths, err)
	}
	for _, p := range paths {
		if _, err := RunFile(context.Background(), eng, Config{}, p); err != nil {
			t.Fatalf("%s: %v", filepath.Base(p), err)
		}
	}
}
