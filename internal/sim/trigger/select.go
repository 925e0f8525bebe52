package trigger

import "gigcraft.ai/internal/sim/rng"

// SampleWeighted picks an index with probability weight(i)/sum. Items keep
// their catalog order; ties are decided by the draw alone. It returns -1 when
// nothing has positive weight and then consumes no randomness.
func SampleWeighted[T any](r *rng.RNG, items []T, weight func(T) float64) int {
	var total float64
	for _, it := range items {
		if w := weight(it); w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	target := r.Next() * total
	var acc float64
	last := -1
	for i, it := range items {
		w := weight(it)
		if w <= 0 {
			continue
		}
		acc += w
		last = i
		if target < acc {
			return i
		}
	}
	return last
}

// Gate caps p at maxChance and rolls once.
func Gate(r *rng.RNG, p, maxChance float64) bool {
	return r.Chance(capChance(p, maxChance))
}

func capChance(p, maxChance float64) float64 {
	if p < 0 {
		return 0
	}
	if p > maxChance {
		return maxChance
	}
	return p
}
