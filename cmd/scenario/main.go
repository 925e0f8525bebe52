package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	"gigcraft.ai/internal/config"
	"gigcraft.ai/internal/scenario"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)
	fs.SetOutput(stderr)
	logOnly := fs.Bool("log_only", false, "report failed expectations without stopping")
	cfg, err := config.ParseTools(fs, args)
	if err != nil {
		return 2
	}

	paths, err := scenarioPaths(fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "usage: scenario [-configs dir] [-log_only] file.lua|dir ...")
		return 2
	}

	eng, err := config.LoadEngine(cfg.ConfigDir, cfg.TuningPath)
	if err != nil {
		fmt.Fprintln(stderr, "load engine:", err)
		return 1
	}

	rc := scenario.Config{
		Verbose: cfg.Verbose,
		Logger:  log.New(stdout, "[scenario] ", 0),
	}
	if *logOnly {
		rc.Assertions = scenario.AssertionLogOnly
	}

	failed := 0
	for _, p := range paths {
		res, err := scenario.RunFile(ctx, eng, rc, p)
		name := filepath.Base(p)
		if err != nil {
			failed++
			if errors.Is(err, scenario.ErrAssertion) {
				fmt.Fprintf(stdout, "FAIL %s: %v\n", name, err)
			} else {
				fmt.Fprintf(stdout, "ERROR %s: %v\n", name, err)
			}
			continue
		}
		status := "ok"
		if len(res.Failures) > 0 {
			status = fmt.Sprintf("ok (%d expectations logged)", len(res.Failures))
		}
		st := res.State
		fmt.Fprintf(stdout, "%s %s: %s commands, week %d, money $%s, fans %s\n",
			status, name, humanize.Comma(int64(res.Commands)), st.Week,
			humanize.Comma(int64(st.Player.Money)), humanize.Comma(int64(st.Player.Fans)))
	}
	if failed > 0 {
		return 1
	}
	return 0
}

// scenarioPaths expands directories into their .lua files.
func scenarioPaths(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, a)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(a, "*.lua"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}
