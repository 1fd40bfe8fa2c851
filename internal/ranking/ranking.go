// Package ranking orders completed screening results for presentation.
package ranking

import (
	"sort"

	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
)

// Rank sorts results by score descending, in place. The sort is stable, so
// results with equal scores keep their original submission order and
// repeated calls over unchanged data return the same sequence.
func Rank(results []*repository.ScreeningResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
