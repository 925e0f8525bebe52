package catalogs

import (
	"fmt"

	"gigcraft.ai/internal/sim/rng"
)

func pick(r *rng.RNG, words []string, fallback string) string {
	if len(words) == 0 {
		return fallback
	}
	return words[r.Pick(len(words))]
}

// SongTitle draws a placeholder title the player can rename.
func (n Names) SongTitle(r *rng.RNG) string {
	return pick(r, n.SongAdjectives, "Untitled") + " " + pick(r, n.SongNouns, "Song")
}

func (n Names) AlbumTitle(r *rng.RNG) string {
	return pick(r, n.AlbumWords, "Untitled Album")
}

func (n Names) PersonName(r *rng.RNG) string {
	return fmt.Sprintf("%s %s", pick(r, n.FirstNames, "Alex"), pick(r, n.LastNames, "Doe"))
}
