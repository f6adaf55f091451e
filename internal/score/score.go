// Package score turns rule-engine pass/violation counts into a 0–100 score.
package score

import "math"

// Score is the percentage of evaluated rules that passed, rounded to two
// decimals. A page with nothing evaluated scores 100.
func Score(passes, violations int) float64 {
	total := passes + violations
	if total == 0 {
		return 100
	}
	return Round(float64(passes)/float64(total)*100, 2)
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
