// Package importance classifies tournaments into championship tiers from
// their free-text description.
package importance

import "strings"

// Tier is a tournament's championship level.
type Tier int

const (
	Regular Tier = iota
	State
	National
)

func (t Tier) String() string {
	switch t {
	case National:
		return "national"
	case State:
		return "state"
	default:
		return "regular"
	}
}

// Championship reports whether demotions are suppressed at this tier.
func (t Tier) Championship() bool {
	return t == State || t == National
}

var (
	nationalMarkers = []string{"national tournament", "nationals", "national championship"} //nolint:gochecknoglobals // fixed marker list
	stateMarkers    = []string{"state tournament", "states", "state championship"}          //nolint:gochecknoglobals // fixed marker list
)

// Classify inspects the tournament name, its source filename and raw text.
// National markers win over state markers.
func Classify(name, filename, rawText string) Tier {
	text := strings.ToLower(strings.Join([]string{name, filename, rawText}, " "))
	if containsAny(text, nationalMarkers) {
		return National
	}
	if containsAny(text, stateMarkers) {
		return State
	}
	return Regular
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
