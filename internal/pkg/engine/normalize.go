// Package engine scores a fixture from its prediction payload and derives the pick,
// the Asian handicap suggestion and the betting verdict.
//
// Every function is pure: an Engine only holds its immutable Config and may be shared
// between goroutines. Percent-like values are on the 0-100 scale throughout.
package engine

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

var errNotANumber = errors.New("not a finite number")

// Pct coerces a percent-like value to a float on the 0-100 scale.
// nil and empty strings give 0, "55%" gives 55, unparsable input gives 0. It never panics.
func Pct(v any) float64 {
	n, _, err := parseLeaf(v)
	if err != nil {
		return 0
	}
	return n
}

// Clamp saturates v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// clamp100 saturates a factor score into [0, 100].
func clamp100(v float64) float64 {
	return Clamp(v, 0, 100)
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// parseLeaf is the strict form of Pct: it reports whether a value was present and
// fails on malformed or non-finite input.
func parseLeaf(v any) (value float64, present bool, err error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case models.Flex:
		return parseLeaf(x.Value)
	case *models.Flex:
		if x == nil {
			return 0, false, nil
		}
		return parseLeaf(x.Value)
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x), true, nil
	case int64:
		return float64(x), true, nil
	case json.Number:
		return parseLeaf(string(x))
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, "%", ""))
		if s == "" {
			return 0, false, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, true, err
		}
		return finite(n)
	default:
		return 0, true, errNotANumber
	}
}

func finite(n float64) (float64, bool, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, true, errNotANumber
	}
	return n, true, nil
}
