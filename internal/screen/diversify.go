package screen

import (
	"math"
	"sort"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/strategy"
)

// Diversify bounds any one group's share of the surviving pool. Pools
// smaller than the configured minimum skip the pass entirely, and groups
// at or under the exemption count are never pruned. Drops are by score
// ascending, ties by entity ID, so repeated runs prune identically.
func Diversify(pool []contracts.ScoreRecord, config strategy.Diversification) []contracts.ScoreRecord {
	if len(pool) < config.MinPoolSize {
		return pool
	}

	byGroup := make(map[string][]int) // group -> indexes into pool
	for i, rec := range pool {
		byGroup[rec.Group] = append(byGroup[rec.Group], i)
	}

	// Cap is relative to the pool size before pruning.
	limit := int(math.Floor(float64(len(pool)) * config.MaxGroupRatio))
	if limit < 1 {
		limit = 1
	}

	dropped := make(map[int]bool)
	for _, indexes := range byGroup {
		if len(indexes) <= limit || len(indexes) <= config.ExemptCount {
			continue
		}

		// Worst score first; ties broken by entity ID.
		sort.Slice(indexes, func(a, b int) bool {
			ra, rb := pool[indexes[a]], pool[indexes[b]]
			if ra.TotalScore != rb.TotalScore {
				return ra.TotalScore < rb.TotalScore
			}
			return ra.Entity < rb.Entity
		})

		for _, idx := range indexes[:len(indexes)-limit] {
			dropped[idx] = true
		}
	}

	if len(dropped) == 0 {
		return pool
	}
	kept := make([]contracts.ScoreRecord, 0, len(pool)-len(dropped))
	for i, rec := range pool {
		if !dropped[i] {
			kept = append(kept, rec)
		}
	}
	return kept
}
