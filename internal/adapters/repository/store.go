// Package repository holds rating state: the season-partitioned rating store
// written by the engine and the leaderboard index served to readers.
package repository

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/olyrank/internal/domain/model"
	"github.com/okian/olyrank/internal/domain/rating"
)

// Key addresses one rating record.
type Key struct {
	State    string
	Team     string
	Season   int
	Category string
}

// HistoryEntry is one tournament's outcome for a record.
type HistoryEntry struct {
	Date       string  `json:"d"`
	Tournament int     `json:"t"`
	Place      int     `json:"p"`
	Rating     float64 `json:"e"`
	Link       string  `json:"l,omitempty"`
	Note       string  `json:"n,omitempty"`
}

// Record is the current rating and history of a team in one category and season.
type Record struct {
	Rating  float64        `json:"rating"`
	History []HistoryEntry `json:"history"`
}

// Season holds one season's records by category.
type Season struct {
	Events map[string]*Record `json:"events"`
}

// Meta aggregates a team's participation.
type Meta struct {
	// Games is the cumulative number of overall opponents faced.
	Games int `json:"games"`
	// Events is the number of distinct events entered in the latest season.
	Events int `json:"events"`
}

// TeamRatings is everything stored for one (state, team).
type TeamRatings struct {
	Seasons map[int]*Season `json:"seasons"`
	Meta    Meta            `json:"meta"`
}

// Store is the rating table the engine folds tournaments into.
type Store interface {
	// GetOrInitialize returns the record for key, creating it seeded from the
	// most recent earlier season of the same category when absent.
	GetOrInitialize(key Key) *Record
	// Peek returns the rating and history length without creating a record.
	Peek(key Key) (float64, int)
	// Apply sets the floored rating and appends entry with its rating rounded.
	Apply(rec *Record, newRating float64, entry HistoryEntry) error
	// RecordParticipation updates team meta for one rated category.
	RecordParticipation(state, team string, season int, category string, opponents int)
	// Snapshot returns a deep copy keyed by state then team.
	Snapshot() map[string]map[string]*TeamRatings
	// Count returns the number of records.
	Count() int
}

type teamState struct {
	ratings    *TeamRatings
	eventSets  map[int]map[string]bool
	lastSeason int
}

// MemoryStore is the in-memory Store. It is single-writer.
type MemoryStore struct {
	starting float64
	floor    float64
	teams    map[string]map[string]*teamState
	records  int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	p := rating.DefaultParams()
	s := &MemoryStore{
		starting: p.StartingRating,
		floor:    p.Floor,
		teams:    make(map[string]map[string]*teamState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) team(state, name string, create bool) *teamState {
	byName, ok := s.teams[state]
	if !ok {
		if !create {
			return nil
		}
		byName = make(map[string]*teamState)
		s.teams[state] = byName
	}
	ts, ok := byName[name]
	if !ok && create {
		ts = &teamState{
			ratings:   &TeamRatings{Seasons: make(map[int]*Season)},
			eventSets: make(map[int]map[string]bool),
		}
		byName[name] = ts
	}
	return ts
}

func (s *MemoryStore) lookup(key Key) *Record {
	ts := s.team(key.State, key.Team, false)
	if ts == nil {
		return nil
	}
	season, ok := ts.ratings.Seasons[key.Season]
	if !ok {
		return nil
	}
	return season.Events[key.Category]
}

// carryover walks earlier seasons, newest first.
func (s *MemoryStore) carryover(key Key) float64 {
	ts := s.team(key.State, key.Team, false)
	if ts == nil {
		return s.starting
	}
	seasons := make([]int, 0, len(ts.ratings.Seasons))
	for y := range ts.ratings.Seasons {
		if y < key.Season {
			seasons = append(seasons, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(seasons)))
	for _, y := range seasons {
		if rec, ok := ts.ratings.Seasons[y].Events[key.Category]; ok {
			return rec.Rating
		}
	}
	return s.starting
}

func (s *MemoryStore) GetOrInitialize(key Key) *Record {
	if rec := s.lookup(key); rec != nil {
		return rec
	}
	seed := s.carryover(key)
	ts := s.team(key.State, key.Team, true)
	season, ok := ts.ratings.Seasons[key.Season]
	if !ok {
		season = &Season{Events: make(map[string]*Record)}
		ts.ratings.Seasons[key.Season] = season
	}
	rec := &Record{Rating: seed}
	season.Events[key.Category] = rec
	s.records++
	return rec
}

func (s *MemoryStore) Peek(key Key) (float64, int) {
	if rec := s.lookup(key); rec != nil {
		return rec.Rating, len(rec.History)
	}
	return s.carryover(key), 0
}

func (s *MemoryStore) Apply(rec *Record, newRating float64, entry HistoryEntry) error {
	if n := len(rec.History); n > 0 && entry.Date < rec.History[n-1].Date {
		return fmt.Errorf("%w: %s before %s", ErrHistoryOrder, entry.Date, rec.History[n-1].Date)
	}
	rec.Rating = math.Max(s.floor, newRating)
	entry.Rating = rating.Round2(rec.Rating)
	rec.History = append(rec.History, entry)
	return nil
}

func (s *MemoryStore) RecordParticipation(state, team string, season int, category string, opponents int) {
	ts := s.team(state, team, true)
	if category == model.Overall {
		ts.ratings.Meta.Games += opponents
		return
	}
	set, ok := ts.eventSets[season]
	if !ok {
		set = make(map[string]bool)
		ts.eventSets[season] = set
	}
	set[category] = true
	if season >= ts.lastSeason {
		ts.lastSeason = season
		ts.ratings.Meta.Events = len(set)
	}
}

func (s *MemoryStore) Snapshot() map[string]map[string]*TeamRatings {
	out := make(map[string]map[string]*TeamRatings, len(s.teams))
	for state, byName := range s.teams {
		teams := make(map[string]*TeamRatings, len(byName))
		for name, ts := range byName {
			teams[name] = ts.ratings.clone()
		}
		out[state] = teams
	}
	return out
}

func (s *MemoryStore) Count() int {
	return s.records
}

func (t *TeamRatings) clone() *TeamRatings {
	c := &TeamRatings{Seasons: make(map[int]*Season, len(t.Seasons)), Meta: t.Meta}
	for y, season := range t.Seasons {
		events := make(map[string]*Record, len(season.Events))
		for cat, rec := range season.Events {
			events[cat] = &Record{Rating: rec.Rating, History: append([]HistoryEntry(nil), rec.History...)}
		}
		c.Seasons[y] = &Season{Events: events}
	}
	return c
}
