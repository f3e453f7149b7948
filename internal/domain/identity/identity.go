// Package identity resolves raw tournament registrations into canonical
// per-school squads.
package identity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/olyrank/internal/domain/model"
	"github.com/okian/olyrank/internal/domain/registry"
)

// Squad is a school's canonical team slot.
type Squad int

const (
	Primary Squad = iota
	Secondary
)

// Label is the suffix used in canonical names.
func (s Squad) Label() string {
	if s == Secondary {
		return "JV"
	}
	return "Varsity"
}

func (s Squad) String() string {
	if s == Secondary {
		return "secondary"
	}
	return "primary"
}

// Identity is a canonical team. Ratings are keyed by (State, Name()).
type Identity struct {
	State  string
	School string
	Squad  Squad
}

// Name returns "<school> Varsity" or "<school> JV".
func (i Identity) Name() string {
	return i.School + " " + i.Squad.Label()
}

// Key is unique per (state, canonical name).
func (i Identity) Key() string {
	return i.State + "|" + i.Name()
}

// WithSquad returns the same school's identity in another slot.
func (i Identity) WithSquad(s Squad) Identity {
	i.Squad = s
	return i
}

func (i Identity) String() string {
	return fmt.Sprintf("%s (%s)", i.Name(), i.State)
}

// Resolution is the outcome of resolving one tournament.
type Resolution struct {
	// Identities maps raw team number to canonical identity. Dropped
	// squads and no-shows are absent.
	Identities map[int]Identity
	// Scores holds the normalized overall score of every non-no-show team.
	Scores map[int]float64
	// Competitors counts placed, non-no-show teams per event.
	Competitors map[string]int
	// NoShows lists teams with no place in any event, by number.
	NoShows []int
	// Dropped lists third and later squads of a school, by number.
	Dropped []int
	// NewTeams counts canonical names registered by this tournament.
	NewTeams int

	places map[int]map[string]int
}

// Place returns team's recorded place in event.
func (r *Resolution) Place(team int, event string) (int, bool) {
	p, ok := r.places[team][event]
	return p, ok
}

// IsNoShow reports whether team recorded no place at all.
func (r *Resolution) IsNoShow(team int) bool {
	_, ok := r.Scores[team]
	return !ok
}

type scored struct {
	team  model.RawTeam
	score float64
}

// Resolve validates rec, detects no-shows, scores every team and assigns
// at most two canonical squads per school. New canonical names and event
// names are registered in reg.
func Resolve(rec *model.TournamentRecord, reg *registry.Set) (*Resolution, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	res := &Resolution{
		Identities:  make(map[int]Identity),
		Scores:      make(map[int]float64),
		Competitors: make(map[string]int),
		places:      make(map[int]map[string]int),
	}

	placed := make(map[int]bool)
	for _, p := range rec.Placings {
		if !p.HasPlace() {
			continue
		}
		if res.places[p.Team] == nil {
			res.places[p.Team] = make(map[string]int)
		}
		res.places[p.Team][p.Event] = p.PlaceValue()
		placed[p.Team] = true
	}

	noShow := make(map[int]bool)
	for _, team := range rec.Teams {
		if !placed[team.Number] {
			noShow[team.Number] = true
			res.NoShows = append(res.NoShows, team.Number)
		}
	}

	events := uniqueEvents(rec.Events)
	for _, event := range events {
		reg.Events.GetOrCreateID(event)
		count := 0
		for _, team := range rec.Teams {
			if noShow[team.Number] {
				continue
			}
			if _, ok := res.places[team.Number][event]; ok {
				count++
			}
		}
		res.Competitors[event] = count
	}

	type schoolKey struct{ state, school string }
	var order []schoolKey
	bySchool := make(map[schoolKey][]scored)
	for _, team := range rec.Teams {
		if noShow[team.Number] {
			continue
		}
		total := 0.0
		for _, event := range events {
			if p, ok := res.places[team.Number][event]; ok {
				total += float64(p)
			} else {
				total += float64(res.Competitors[event] + 1)
			}
		}
		res.Scores[team.Number] = total

		key := schoolKey{state: strings.TrimSpace(team.State), school: strings.TrimSpace(team.School)}
		if _, ok := bySchool[key]; !ok {
			order = append(order, key)
		}
		bySchool[key] = append(bySchool[key], scored{team: team, score: total})
	}

	for _, key := range order {
		teams := bySchool[key]
		sort.SliceStable(teams, func(i, j int) bool {
			if teams[i].score != teams[j].score {
				return teams[i].score < teams[j].score
			}
			return teams[i].team.Number < teams[j].team.Number
		})
		for i, t := range teams {
			if i > int(Secondary) {
				res.Dropped = append(res.Dropped, t.team.Number)
				continue
			}
			id := Identity{State: key.state, School: key.school, Squad: Squad(i)}
			res.Identities[t.team.Number] = id
			if _, created := reg.Teams.GetOrCreateID(id.Name()); created {
				res.NewTeams++
			}
		}
	}
	return res, nil
}

func uniqueEvents(defs []model.EventDefinition) []string {
	seen := make(map[string]bool, len(defs))
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		out = append(out, d.Name)
	}
	return out
}
