package normalize

import (
	"math"

	"github.com/simonhull/firebird-suite/heron/pkg/payload"
)

// Complexity extracts one score from a complexity field. The precedence is
// a structured "cyclomatic" field, then a structured "value" field, then a
// bare number. Anything else, and any negative score, is 0.
func Complexity(v payload.Value) float64 {
	var score float64
	switch {
	case v.IsObject():
		for _, key := range []string{"cyclomatic", "value"} {
			if f := v.Get(key).Float(math.NaN()); !math.IsNaN(f) {
				score = f
				break
			}
		}
	default:
		score = v.Float(0)
	}
	if score < 0 || math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}
