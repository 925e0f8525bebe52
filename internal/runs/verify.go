package runs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	persistlog "gigcraft.ai/internal/persistence/log"
	"gigcraft.ai/internal/persistence/snapshot"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/engine"
)

type Report struct {
	RunID           string
	Commands        int
	SnapshotsTested int
	FinalWeek       int
	FinalDigest     string
	GameOver        bool
	Ending          *career.EndingRecord
}

// Verify replays a run from its opening snapshot through the whole command
// log. Every logged digest and every later snapshot must match the replay.
func Verify(eng *engine.Engine, dataDir, runID string) (Report, error) {
	rep := Report{RunID: runID}
	weeks, err := snapshot.Weeks(dataDir, runID)
	if err != nil {
		return rep, err
	}
	if len(weeks) == 0 {
		return rep, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	h0, s, err := snapshot.ReadSnapshot(snapshot.PathFor(dataDir, runID, weeks[0]))
	if err != nil {
		return rep, err
	}
	if h0.Seq != 0 {
		return rep, fmt.Errorf("opening snapshot starts at seq %d", h0.Seq)
	}

	// Later snapshots keyed by the seq they were taken at.
	bySeq := map[int]snapshot.Header{}
	for _, w := range weeks[1:] {
		h, err := snapshot.ReadHeader(snapshot.PathFor(dataDir, runID, w))
		if err != nil {
			return rep, fmt.Errorf("week %d: %w", w, err)
		}
		bySeq[h.Seq] = h
	}

	err = persistlog.ReadEntries(persistlog.CommandsDir(filepath.Join(dataDir, runID)), func(e persistlog.Entry) error {
		if e.Seq != rep.Commands+1 {
			return fmt.Errorf("seq %d follows %d", e.Seq, rep.Commands)
		}
		out, err := eng.Execute(s, e.Command)
		if err != nil {
			return fmt.Errorf("seq %d: %w", e.Seq, err)
		}
		d, err := engine.Digest(out.State)
		if err != nil {
			return err
		}
		if d != e.Digest {
			return fmt.Errorf("%w: seq %d week %d", ErrDiverged, e.Seq, out.State.Week)
		}
		if h, ok := bySeq[e.Seq]; ok {
			if h.Digest != d {
				return fmt.Errorf("%w: snapshot week %d", ErrDiverged, h.Week)
			}
			rep.SnapshotsTested++
		}
		s = out.State
		rep.Commands = e.Seq
		return nil
	})
	if err != nil && !(errors.Is(err, os.ErrNotExist) && len(bySeq) == 0) {
		return rep, err
	}

	rep.FinalWeek = s.Week
	rep.GameOver = s.IsGameOver
	rep.Ending = s.Ending
	rep.FinalDigest, err = engine.Digest(s)
	return rep, err
}
