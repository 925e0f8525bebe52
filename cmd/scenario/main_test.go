package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_ShippedScenarios(t *testing.T) {
	configs := filepath.Join("..", "..", "configs")
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-configs", configs, filepath.Join("..", "..", "scenarios")}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit %d\nstdout: %s\nstderr: %s", code, out.String(), errOut.String())
	}
	if !strings.Contains(out.String(), "ok first_weeks.lua") {
		t.Fatalf("output: %s", out.String())
	}
}

func TestRun_FailingExpectation(t *testing.T) {
	dir := t.TempDir()
	script := `local s = Scenario.new("broken", {seed = 1})
s:turn("REST")
s:expect("week", "==", 99)
return s`
	path := filepath.Join(dir, "broken.lua")
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	configs := filepath.Join("..", "..", "configs")

	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"-configs", configs, path}, &out, &errOut); code != 1 {
		t.Fatalf("strict exit %d: %s", code, out.String())
	}
	if !strings.Contains(out.String(), "FAIL broken.lua") {
		t.Fatalf("output: %s", out.String())
	}

	out.Reset()
	if code := run(context.Background(), []string{"-configs", configs, "-log_only", path}, &out, &errOut); code != 0 {
		t.Fatalf("log-only exit %d: %s", code, out.String())
	}
	if !strings.Contains(out.String(), "1 expectations logged") {
		t.Fatalf("output: %s", out.String())
	}
}
