// Package ranking orders canonical teams within one tournament, overall and
// per event, using competition ranking for ties.
package ranking

import (
	"sort"

	"github.com/okian/olyrank/internal/domain/identity"
	"github.com/okian/olyrank/internal/domain/model"
)

// MinEntries is the smallest ranking that can produce a rating update.
const MinEntries = 2

// Entry is one ranked team. Lower Score is better.
type Entry struct {
	Team   identity.Identity
	Number int
	Score  float64
	Place  int
}

// Ranking is an ordered list of entries for one category.
type Ranking struct {
	Category string
	Entries  []Entry
}

// Rateable reports whether the ranking has enough entries for an update.
func (r Ranking) Rateable() bool {
	return len(r.Entries) >= MinEntries
}

// Build returns the overall ranking and one ranking per event that had at
// least one competitor. Event rankings follow the record's event order.
func Build(rec *model.TournamentRecord, res *identity.Resolution) (Ranking, []Ranking) {
	overall := Ranking{Category: model.Overall}
	for _, team := range rec.Teams {
		id, ok := res.Identities[team.Number]
		if !ok {
			continue
		}
		overall.Entries = append(overall.Entries, Entry{Team: id, Number: team.Number, Score: res.Scores[team.Number]})
	}
	AssignPlaces(overall.Entries)

	seen := make(map[string]bool, len(rec.Events))
	events := make([]Ranking, 0, len(rec.Events))
	for _, def := range rec.Events {
		if seen[def.Name] {
			continue
		}
		seen[def.Name] = true

		competitors := res.Competitors[def.Name]
		if competitors == 0 {
			continue
		}
		r := Ranking{Category: def.Name}
		for _, team := range rec.Teams {
			id, ok := res.Identities[team.Number]
			if !ok {
				continue
			}
			place, placed := res.Place(team.Number, def.Name)
			if !placed {
				place = competitors + 1
			}
			r.Entries = append(r.Entries, Entry{Team: id, Number: team.Number, Score: float64(place)})
		}
		AssignPlaces(r.Entries)
		events = append(events, r)
	}
	return overall, events
}

// AssignPlaces sorts entries ascending by score and assigns competition
// places: equal scores share a place and the next distinct score resumes
// at its 1-based index, so [10, 10, 20] becomes [1, 1, 3].
func AssignPlaces(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score < entries[j].Score
	})
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Place = entries[i-1].Place
			continue
		}
		entries[i].Place = i + 1
	}
}
