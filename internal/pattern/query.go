package pattern

import "PatternSentinel/internal/model"

// Latest returns a copy of the last n patterns (fewer if not available).
func Latest(patterns []model.Pattern, n int) []model.Pattern {
	if n <= 0 {
		return []model.Pattern{}
	}
	start := len(patterns) - n
	if start < 0 {
		start = 0
	}
	out := make([]model.Pattern, len(patterns)-start)
	copy(out, patterns[start:])
	return out
}

// EndingAt returns the patterns whose terminal candle is index.
func EndingAt(patterns []model.Pattern, index int) []model.Pattern {
	out := make([]model.Pattern, 0)
	for _, p := range patterns {
		if p.CandleIndex == index {
			out = append(out, p)
		}
	}
	return out
}

// CountByType tallies patterns by direction.
func CountByType(patterns []model.Pattern) map[model.Direction]int {
	counts := map[model.Direction]int{}
	for _, p := range patterns {
		counts[p.Type]++
	}
	return counts
}
