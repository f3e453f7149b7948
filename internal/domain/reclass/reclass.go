// Package reclass detects implausible rating collapses of primary squads
// outside championships, relabels them as secondary squads and recomputes
// the ranking once.
package reclass

import (
	"github.com/okian/olyrank/internal/domain/identity"
	"github.com/okian/olyrank/internal/domain/importance"
	"github.com/okian/olyrank/internal/domain/rating"
)

// Note is attached to the history entry of every converted squad.
const Note = "Converted from Varsity due to large ELO drop"

// State is the loop's progress for one ranking.
type State int

const (
	Initial State = iota
	Evaluated
	NoReclass
	Reclassified
)

func (s State) String() string {
	switch s {
	case Evaluated:
		return "evaluated"
	case NoReclass:
		return "no_reclass"
	case Reclassified:
		return "reclassified"
	default:
		return "initial"
	}
}

// Params holds the trigger thresholds.
type Params struct {
	RatingThreshold float64
	DeltaThreshold  float64
}

// DefaultParams returns the standard thresholds.
func DefaultParams() Params {
	return Params{RatingThreshold: 2000, DeltaThreshold: -90}
}

// Entry is one ranked team with its current rating.
type Entry struct {
	Team         identity.Identity
	Place        int
	Rating       float64
	PriorResults int
}

// Outcome is the final ranking and its updates. Updates align with Entries
// and are nil when the ranking is too small to rate.
type Outcome struct {
	State   State
	Entries []Entry
	Updates []rating.Update
	// Converted holds the keys of the relabeled identities.
	Converted map[string]bool
}

// Loop evaluates rankings with fixed parameters.
type Loop struct {
	params Params
	rating rating.Params
}

// New creates a Loop.
func New(p Params, rp rating.Params) *Loop {
	return &Loop{params: p, rating: rp}
}

// Evaluate computes the ranking's updates and, when a primary squad collapses
// at a non-championship tier, recomputes once with that squad relabeled.
// Secondary entries are removed from the recomputed ranking.
func (l *Loop) Evaluate(tier importance.Tier, entries []Entry) Outcome {
	out := Outcome{State: Initial, Entries: entries}
	multiplier := l.rating.Importance(tier)

	out.Updates = rating.Compute(l.rating, participants(entries), multiplier)
	out.State = Evaluated

	triggers := l.triggers(tier, entries, out.Updates)
	if len(triggers) == 0 {
		out.State = NoReclass
		return out
	}

	reduced := make([]Entry, 0, len(entries))
	converted := make(map[string]bool, len(triggers))
	for i, e := range entries {
		if e.Team.Squad == identity.Secondary {
			continue
		}
		if triggers[i] {
			e.Team = e.Team.WithSquad(identity.Secondary)
			converted[e.Team.Key()] = true
		}
		reduced = append(reduced, e)
	}

	out.State = Reclassified
	out.Entries = reduced
	out.Converted = converted
	out.Updates = rating.Compute(l.rating, participants(reduced), multiplier)
	return out
}

func (l *Loop) triggers(tier importance.Tier, entries []Entry, updates []rating.Update) map[int]bool {
	if tier.Championship() || len(updates) != len(entries) {
		return nil
	}
	var hit map[int]bool
	for i, e := range entries {
		if e.Team.Squad != identity.Primary {
			continue
		}
		if e.Rating >= l.params.RatingThreshold && updates[i].Delta <= l.params.DeltaThreshold {
			if hit == nil {
				hit = make(map[int]bool)
			}
			hit[i] = true
		}
	}
	return hit
}

func participants(entries []Entry) []rating.Participant {
	parts := make([]rating.Participant, len(entries))
	for i, e := range entries {
		parts[i] = rating.Participant{
			Key:          e.Team.Key(),
			Rating:       e.Rating,
			Place:        e.Place,
			PriorResults: e.PriorResults,
		}
	}
	return parts
}
