// Package quantile parses and formats quantile levels for configuration and
// summary keys.
package quantile

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLevel parses a quantile level from either p-notation (p90, p95) or
// decimal notation (0.90, 0.95).
//
// Examples:
//   - "p50" → 0.50
//   - "p99" → 0.99
//   - "0.90" → 0.90
//
// Returns error if the format is invalid or the value is out of range [0, 1].
func ParseLevel(s string) (float64, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return 0, fmt.Errorf("empty quantile level")
	}

	if strings.HasPrefix(strings.ToLower(s), "p") {
		percentile, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid p-notation %q: %w", s, err)
		}
		if percentile < 0 || percentile > 100 {
			return 0, fmt.Errorf("percentile %v out of range [0, 100]", percentile)
		}
		return percentile / 100.0, nil
	}

	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantile %q: %w", s, err)
	}
	if q < 0 || q > 1 {
		return 0, fmt.Errorf("quantile %v out of range [0, 1]", q)
	}
	return q, nil
}

// ParseLevels parses a comma-separated list of quantile levels.
func ParseLevels(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	levels := make([]float64, 0, len(parts))
	for _, part := range parts {
		q, err := ParseLevel(part)
		if err != nil {
			return nil, err
		}
		levels = append(levels, q)
	}
	return levels, nil
}

// FormatLevel formats a quantile level as p-notation for display and
// summary keys.
//
// Examples:
//   - 0.50 → "p50"
//   - 0.999 → "p99.9"
func FormatLevel(q float64) string {
	percentile := q * 100
	if percentile == float64(int(percentile)) {
		return fmt.Sprintf("p%d", int(percentile))
	}
	return fmt.Sprintf("p%.1f", percentile)
}
