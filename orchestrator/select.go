package orchestrator

import (
	"iter"

	"github.com/hupe1980/shed/internal/primes"
	"github.com/hupe1980/shed/model"
)

// Select returns the heaviest record in recs whose weight has no factor in
// primeList. On equal weights the later record wins. ok is false when no
// record is eligible.
func Select(recs iter.Seq[model.Record], primeList []uint64) (best model.Record, ok bool) {
	for r := range recs {
		if !primes.Eligible(uint64(r.Weight), primeList) {
			continue
		}
		// >= keeps the last of equally heavy records.
		if !ok || r.Weight >= best.Weight {
			best, ok = r, true
		}
	}
	return best, ok
}
