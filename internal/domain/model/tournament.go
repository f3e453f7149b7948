// Package model contains the tournament records handed to the rating engine.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Overall is the synthetic category holding a team's whole-tournament rating.
const Overall = "__OVERALL__"

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // validator caches struct metadata

// TournamentRecord is one tournament's results for a single division.
// It is immutable once produced by a loader.
type TournamentRecord struct {
	Name     string    `validate:"required"`
	Date     time.Time `validate:"required"`
	Season   int       `validate:"gt=0"`
	Filename string    // result link, without extension
	Level    string    // declared level, e.g. "Nationals", "States", "Invitational"
	RawText  string    // lowercased source text for importance detection

	Teams    []RawTeam
	Events   []EventDefinition `validate:"dive"`
	Placings []Placing
}

// RawTeam is a team as registered at one tournament.
type RawTeam struct {
	Number int
	School string
	State  string `validate:"required"`
	Suffix string
}

// EventDefinition names one event of a tournament.
type EventDefinition struct {
	Name string `validate:"required"`
}

// Placing is a team's result in one event. A nil or non-positive place
// means the team did not place.
type Placing struct {
	Event string
	Team  int
	Place *int
}

// HasPlace reports whether the placing carries a valid place.
func (p Placing) HasPlace() bool {
	return p.Place != nil && *p.Place > 0
}

// PlaceValue returns the place, or 0 when absent.
func (p Placing) PlaceValue() int {
	if !p.HasPlace() {
		return 0
	}
	return *p.Place
}

// Place returns a pointer to n, for building placings.
func Place(n int) *int {
	return &n
}

// Validate checks the record. A team without a state code yields
// ErrMissingState naming the team number and school.
func (r *TournamentRecord) Validate() error {
	for _, team := range r.Teams {
		if err := validate.Struct(team); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					if fe.Field() == "State" {
						return fmt.Errorf("%w: team %d (%s) in %q", ErrMissingState, team.Number, team.School, r.source())
					}
				}
			}
			return fmt.Errorf("%w: team %d (%s): %w", ErrInvalidRecord, team.Number, team.School, err)
		}
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidRecord, r.source(), err)
	}
	return nil
}

func (r *TournamentRecord) source() string {
	if r.Filename != "" {
		return r.Filename
	}
	return r.Name
}
