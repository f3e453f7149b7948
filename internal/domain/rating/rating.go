package rating

import (
	"math"
	"sort"
)

// Participant is one team's input to an update.
type Participant struct {
	Key    string
	Rating float64
	Place  int
	// PriorResults is the length of the team's history for this category
	// and season before the update.
	PriorResults int
}

// Update is the audit record of one participant's change.
type Update struct {
	Key       string
	OldRating float64
	NewRating float64

	Expected   float64 // average pairwise expectation
	Actual     float64 // average pairwise result, ties count half
	Volatility float64
	Raw        float64 // scaled delta before damping
	Damped     float64
	Normalized float64 // after zero-sum normalization
	Delta      float64 // applied delta after the loss cap
	Capped     bool
}

// Volatility returns the multiplier for a team with prior results this season.
func Volatility(p Params, prior int) float64 {
	switch prior {
	case 0:
		return p.FirstVolatility
	case 1:
		return p.SecondVolatility
	default:
		return 1.0
	}
}

// Competitiveness scales deltas by the strength of the field: the mean of
// the top TopFraction ratings (at least one) relative to the baseline.
func Competitiveness(p Params, ratings []float64) float64 {
	if len(ratings) == 0 {
		return 1.0
	}
	sorted := make([]float64, len(ratings))
	copy(sorted, ratings)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	top := int(math.Floor(float64(len(sorted)) * p.TopFraction))
	if top < 1 {
		top = 1
	}
	sum := 0.0
	for _, r := range sorted[:top] {
		sum += r
	}
	avg := sum / float64(top)
	return 1 + p.CompetitivenessFactor*(avg-p.CompetitivenessBaseline)/p.CompetitivenessBaseline
}

// Expected returns the logistic probability that a beats b.
func Expected(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// Damp compresses large deltas along a smooth sublinear curve.
func Damp(p Params, delta float64) float64 {
	n := math.Abs(delta) / p.DampingScale
	return delta * (1 - p.DampingStrength*(n/(1+n)))
}

// Compute returns one Update per participant, in input order. Fewer than two
// participants yield nil.
func Compute(p Params, parts []Participant, importance float64) []Update {
	n := len(parts)
	if n < 2 {
		return nil
	}

	ratings := make([]float64, n)
	for i, pt := range parts {
		ratings[i] = pt.Rating
	}
	competitiveness := Competitiveness(p, ratings)
	opponents := float64(n - 1)

	updates := make([]Update, n)
	sum := 0.0
	for i, a := range parts {
		expected, actual := 0.0, 0.0
		for j, b := range parts {
			if i == j {
				continue
			}
			expected += Expected(a.Rating, b.Rating)
			switch {
			case a.Place < b.Place:
				actual++
			case a.Place == b.Place:
				actual += 0.5
			}
		}
		expected /= opponents
		actual /= opponents

		vol := Volatility(p, a.PriorResults)
		raw := p.ScalingFactor * (actual - expected) * vol * competitiveness * importance
		damped := Damp(p, raw)
		sum += damped

		updates[i] = Update{
			Key:        a.Key,
			OldRating:  a.Rating,
			Expected:   expected,
			Actual:     actual,
			Volatility: vol,
			Raw:        raw,
			Damped:     damped,
		}
	}

	mean := sum / float64(n)
	for i := range updates {
		u := &updates[i]
		u.Normalized = u.Damped - mean
		u.Delta = u.Normalized
		if u.Delta < -p.MaxLoss {
			u.Delta = -p.MaxLoss
			u.Capped = true
		}
		u.NewRating = math.Max(p.Floor, u.OldRating+u.Delta)
	}
	return updates
}

// Round2 rounds a rating to two decimals for history entries.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
