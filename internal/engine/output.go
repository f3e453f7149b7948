package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/okian/olyrank/internal/adapters/repository"
)

// TimelineEntry is one tournament occurrence.
type TimelineEntry struct {
	Date       string `json:"date"`
	Tournament int    `json:"tournament"`
	Link       string `json:"link,omitempty"`
}

// Registries lists registered names; a name's index is its ID.
type Registries struct {
	Teams       []string `json:"teams"`
	Events      []string `json:"events"`
	Tournaments []string `json:"tournaments"`
}

// Output is a division's rating structure and its references.
type Output struct {
	Division      string                                        `json:"division"`
	RunID         string                                        `json:"runId"`
	Teams         map[string]map[string]*repository.TeamRatings `json:"teams"`
	Registries    Registries                                    `json:"registries"`
	Timeline      map[int][]TimelineEntry                       `json:"tournamentTimeline"`
	NationalsLoss float64                                       `json:"nationalsLoss"`
	Tournaments   int                                           `json:"tournamentsProcessed"`
}

// Output snapshots the current state. The timeline is sorted by date within
// each season.
func (e *Engine) Output() *Output {
	timeline := make(map[int][]TimelineEntry, len(e.timeline))
	for season, entries := range e.timeline {
		sorted := append([]TimelineEntry(nil), entries...)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Date != sorted[j].Date {
				return sorted[i].Date < sorted[j].Date
			}
			return sorted[i].Tournament < sorted[j].Tournament
		})
		timeline[season] = sorted
	}

	reg := e.state.Registries
	return &Output{
		Division: e.division,
		RunID:    uuid.NewString(),
		Teams:    e.state.Store.Snapshot(),
		Registries: Registries{
			Teams:       reg.Teams.Names(),
			Events:      reg.Events.Names(),
			Tournaments: reg.Tournaments.Names(),
		},
		Timeline:      timeline,
		NationalsLoss: e.nationalsLoss,
		Tournaments:   e.processed,
	}
}

// Summary is an Output without its team table.
type Summary struct {
	Division      string                  `json:"division"`
	RunID         string                  `json:"runId"`
	LatestSeason  int                     `json:"latestSeason"`
	Registries    Registries              `json:"registries"`
	Timeline      map[int][]TimelineEntry `json:"tournamentTimeline"`
	NationalsLoss float64                 `json:"nationalsLoss"`
	Tournaments   int                     `json:"tournamentsProcessed"`
}

// LatestSeason returns the most recent season holding any rating, or 0.
func (o *Output) LatestSeason() int {
	latest := 0
	for _, teams := range o.Teams {
		for _, tr := range teams {
			for season := range tr.Seasons {
				latest = max(latest, season)
			}
		}
	}
	return latest
}

// Summary projects o without its team table.
func (o *Output) Summary() Summary {
	return Summary{
		Division:      o.Division,
		RunID:         o.RunID,
		LatestSeason:  o.LatestSeason(),
		Registries:    o.Registries,
		Timeline:      o.Timeline,
		NationalsLoss: o.NationalsLoss,
		Tournaments:   o.Tournaments,
	}
}
