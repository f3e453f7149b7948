// Package rating implements the pairwise Elo update applied to one ranking.
package rating

// Params holds the engine constants.
type Params struct {
	StartingRating          float64
	Floor                   float64
	ScalingFactor           float64
	CompetitivenessFactor   float64
	CompetitivenessBaseline float64
	TopFraction             float64
	FirstVolatility         float64
	SecondVolatility        float64
	StateMultiplier         float64
	NationalMultiplier      float64
	DampingScale            float64
	DampingStrength         float64
	MaxLoss                 float64
}

// DefaultParams returns the standard constants.
func DefaultParams() Params {
	return Params{
		StartingRating:          1500,
		Floor:                   100,
		ScalingFactor:           140,
		CompetitivenessFactor:   0.5,
		CompetitivenessBaseline: 1500,
		TopFraction:             0.7,
		FirstVolatility:         1.5,
		SecondVolatility:        1.1,
		StateMultiplier:         4.0,
		NationalMultiplier:      7.0,
		DampingScale:            100,
		DampingStrength:         0.3,
		MaxLoss:                 200,
	}
}
