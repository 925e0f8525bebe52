package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"gigcraft.ai/internal/config"
	"gigcraft.ai/internal/persistence/snapshot"
	"gigcraft.ai/internal/runs"
	"gigcraft.ai/internal/sim/engine"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		snapPath = fs.String("snapshot", "", "print one .snap.zst and exit")
		all      = fs.Bool("all", false, "verify every run under the data dir")
	)
	cfg, err := config.ParseTools(fs, args)
	if err != nil {
		return 2
	}

	if *snapPath != "" {
		if err := describeSnapshot(stdout, *snapPath); err != nil {
			fmt.Fprintln(stderr, "read snapshot:", err)
			return 1
		}
		return 0
	}

	eng, err := config.LoadEngine(cfg.ConfigDir, cfg.TuningPath)
	if err != nil {
		fmt.Fprintln(stderr, "load engine:", err)
		return 1
	}

	ids := fs.Args()
	if *all {
		m, err := runs.NewManager(eng, runs.Config{DataDir: cfg.DataDir})
		if err != nil {
			fmt.Fprintln(stderr, "runs:", err)
			return 1
		}
		if ids, err = m.RunIDs(); err != nil {
			fmt.Fprintln(stderr, "list runs:", err)
			return 1
		}
	}
	if len(ids) == 0 {
		fmt.Fprintln(stderr, "usage: replay [-data dir] (-all | run_id...) | -snapshot path")
		return 2
	}

	failed := 0
	for _, id := range ids {
		if err := verifyOne(stdout, eng, cfg.DataDir, id, cfg.Verbose); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", id, err)
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(stderr, "%d of %d runs failed verification\n", failed, len(ids))
		return 1
	}
	return 0
}

func verifyOne(w io.Writer, eng *engine.Engine, dataDir, id string, verbose bool) error {
	rep, err := runs.Verify(eng, dataDir, id)
	if err != nil {
		if errors.Is(err, runs.ErrDiverged) {
			return fmt.Errorf("replay diverged after %d commands: %w", rep.Commands, err)
		}
		return err
	}
	fmt.Fprintf(w, "replay ok: run=%s commands=%s snapshots=%d week=%d digest=%s\n",
		rep.RunID, humanize.Comma(int64(rep.Commands)), rep.SnapshotsTested, rep.FinalWeek, short(rep.FinalDigest))
	if rep.GameOver && rep.Ending != nil {
		fmt.Fprintf(w, "  ending: %s/%s %q score=%s\n", rep.Ending.Category, rep.Ending.Variation, rep.Ending.Title, humanize.Comma(int64(rep.Ending.Score)))
		if verbose && rep.Ending.Text != "" {
			fmt.Fprintf(w, "  %s\n", rep.Ending.Text)
		}
	}
	return nil
}

func describeSnapshot(w io.Writer, path string) error {
	h, s, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "snapshot v%d run=%s week=%d (year %d) seq=%d digest=%s catalogs=%s\n",
		h.Version, h.RunID, h.Week, s.Year, h.Seq, short(h.Digest), short(h.CatalogDigest))
	fmt.Fprintf(w, "  %s / %s (%s) money=$%s fans=%s songs=%d albums=%d bandmates=%d\n",
		s.Player.Name, s.Player.BandName, s.Difficulty,
		humanize.Comma(int64(s.Player.Money)), humanize.Comma(int64(s.Player.Fans)),
		len(s.Songs), len(s.Albums), s.ActiveBandmates())
	if s.IsGameOver {
		fmt.Fprintf(w, "  game over: %s\n", s.GameOverReason)
	}
	return nil
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
