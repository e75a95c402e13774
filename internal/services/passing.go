package services

// DefaultPassingPercent is used when the configured percent is out of range
const DefaultPassingPercent = 80

// NormalizePassingPercent clamps a configured passing percent into [1,100].
// Non-positive or too-large values fall back to the default.
func NormalizePassingPercent(percent int) int {
	if percent <= 0 || percent > 100 {
		return DefaultPassingPercent
	}
	return percent
}

// IsPassed reports whether score out of total meets the passing percent.
// Integer arithmetic avoids floating rounding flips near the threshold.
func IsPassed(score, total, percent int) bool {
	if total <= 0 {
		return false
	}
	return score*100 >= total*NormalizePassingPercent(percent)
}
