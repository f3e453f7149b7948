package rating

import "github.com/okian/olyrank/internal/domain/importance"

// Importance returns the multiplier for a tournament tier.
func (p Params) Importance(t importance.Tier) float64 {
	switch t {
	case importance.National:
		return p.NationalMultiplier
	case importance.State:
		return p.StateMultiplier
	default:
		return 1.0
	}
}
