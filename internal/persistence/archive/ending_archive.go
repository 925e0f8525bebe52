package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gigcraft.ai/internal/persistence/snapshot"
	"gigcraft.ai/internal/sim/career"
)

type EndingArchiveMeta struct {
	RunID      string `json:"run_id"`
	Week       int    `json:"week"`
	Seq        int    `json:"seq"`
	Seed       int64  `json:"seed"`
	Difficulty string `json:"difficulty"`
	BandName   string `json:"band_name"`
	Reason     string `json:"reason"`
	Category   string `json:"category"`
	Variation  string `json:"variation"`
	Title      string `json:"title"`
	Score      int    `json:"score"`
	Snapshot   string `json:"snapshot"`
	Digest     string `json:"digest"`
	CreatedAt  string `json:"created_at"`
}

// Dir is where finished runs are archived under a data dir.
func Dir(dataDir string) string { return filepath.Join(dataDir, "archives") }

// ArchiveEnding copies a finished run's final snapshot into
// `dataDir/archives/<category>/<runID>/` next to a meta.json describing the
// ending. It returns archived=false for runs that are not over.
func ArchiveEnding(dataDir, snapshotPath string, h snapshot.Header, s *career.GameState) (archivedPath string, archived bool, err error) {
	if s == nil || !s.IsGameOver || !h.GameOver {
		return "", false, nil
	}
	category := "none"
	meta := EndingArchiveMeta{
		RunID:      s.RunID,
		Week:       h.Week,
		Seq:        h.Seq,
		Seed:       s.Seed,
		Difficulty: s.Difficulty,
		BandName:   s.Player.BandName,
		Reason:     string(s.GameOverReason),
		Digest:     h.Digest,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if e := s.Ending; e != nil {
		if e.Category != "" {
			category = e.Category
		}
		meta.Category = e.Category
		meta.Variation = e.Variation
		meta.Title = e.Title
		meta.Score = e.Score
	}
	if filepath.Base(category) != category || filepath.Base(s.RunID) != s.RunID {
		return "", false, fmt.Errorf("archive: bad path component %q/%q", category, s.RunID)
	}

	archiveDir := filepath.Join(Dir(dataDir), category, s.RunID)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta.Snapshot = filepath.Base(dst)
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644); err != nil {
		return "", false, err
	}
	return dst, true, nil
}

// ReadMeta loads the meta.json of an archived run.
func ReadMeta(archiveRunDir string) (EndingArchiveMeta, error) {
	var m EndingArchiveMeta
	b, err := os.ReadFile(filepath.Join(archiveRunDir, "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
