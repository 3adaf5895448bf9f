package reward

import (
	"math"
	"strings"
)

// Weights maps a donation category to its multiplier. Categories not listed weigh 1.
type Weights map[string]float64

func DefaultWeights() Weights {
	return Weights{"TOP": 1, "BOTTOM": 1, "OUTER": 3, "SHOES": 2, "BAG": 1, "ETC": 1}
}

func (w Weights) Of(category string) float64 {
	if v, ok := w[strings.ToUpper(category)]; ok {
		return v
	}
	return 1
}

type DonationLine struct {
	Category string
	Quantity int64
}

// DonationCount sums quantities, ignoring negatives.
func DonationCount(lines []DonationLine) int64 {
	var n int64
	for _, l := range lines {
		if l.Quantity > 0 {
			n += l.Quantity
		}
	}
	return n
}

// ExpectedDonationPoints is round(sum(quantity * weight) * unitPoint).
func ExpectedDonationPoints(lines []DonationLine, w Weights, unitPoint float64) int64 {
	var sum float64
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		sum += float64(l.Quantity) * w.Of(l.Category)
	}
	return int64(math.Round(sum * unitPoint))
}
