package loader

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/olyrank/internal/domain/model"
)

// sciolyffFile mirrors the sections of a SciolyFF result file that the
// engine consumes.
type sciolyffFile struct {
	Tournament struct {
		Name      string `yaml:"name"`
		ShortName string `yaml:"short name"`
		Level     string `yaml:"level"`
		State     string `yaml:"state"`
		Division  string `yaml:"division"`
		Year      int    `yaml:"year"`
		StartDate string `yaml:"start date"`
	} `yaml:"Tournament"`
	Events []struct {
		Name  string `yaml:"name"`
		Trial bool   `yaml:"trial"`
	} `yaml:"Events"`
	Teams []struct {
		Number int    `yaml:"number"`
		School string `yaml:"school"`
		Suffix string `yaml:"suffix"`
		State  string `yaml:"state"`
	} `yaml:"Teams"`
	Placings []struct {
		Event        string `yaml:"event"`
		Team         int    `yaml:"team"`
		Place        *int   `yaml:"place"`
		Participated *bool  `yaml:"participated"`
		Disqualified bool   `yaml:"disqualified"`
	} `yaml:"Placings"`
}

const dateLayout = "2006-01-02"

var filenamePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})_(.+)_([a-z])$`) //nolint:gochecknoglobals // compiled once

// Parse maps one SciolyFF document to a TournamentRecord. filename is the
// base name, with or without extension.
func Parse(filename string, data []byte) (*model.TournamentRecord, error) {
	var f sciolyffFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParseResult, filename, err)
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	parts := filenamePattern.FindStringSubmatch(strings.ToLower(base))

	rec := &model.TournamentRecord{
		Name:     strings.TrimSpace(f.Tournament.Name),
		Filename: base,
		Level:    f.Tournament.Level,
		RawText:  strings.ToLower(string(data)) + " " + strings.ToLower(f.Tournament.Level),
	}
	if rec.Name == "" && parts != nil {
		rec.Name = titleWords(parts[4])
	}

	date, err := resultDate(f.Tournament.StartDate, parts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParseResult, filename, err)
	}
	rec.Date = date

	switch {
	case f.Tournament.Year > 0:
		rec.Season = f.Tournament.Year
	case !date.IsZero():
		rec.Season = date.Year()
	}

	trial := make(map[string]bool)
	for _, ev := range f.Events {
		if ev.Trial {
			trial[ev.Name] = true
			continue
		}
		rec.Events = append(rec.Events, model.EventDefinition{Name: ev.Name})
	}
	for _, t := range f.Teams {
		rec.Teams = append(rec.Teams, model.RawTeam{
			Number: t.Number,
			School: strings.TrimSpace(t.School),
			State:  strings.TrimSpace(t.State),
			Suffix: t.Suffix,
		})
	}
	for _, p := range f.Placings {
		if trial[p.Event] {
			continue
		}
		pl := model.Placing{Event: p.Event, Team: p.Team, Place: p.Place}
		if p.Disqualified || (p.Participated != nil && !*p.Participated) {
			pl.Place = nil
		}
		rec.Placings = append(rec.Placings, pl)
	}
	return rec, nil
}

// resultDate prefers the declared start date and falls back to the
// YYYY-MM-DD filename prefix.
func resultDate(declared string, parts []string) (time.Time, error) {
	if declared = strings.TrimSpace(declared); declared != "" {
		if len(declared) > len(dateLayout) {
			declared = declared[:len(dateLayout)]
		}
		return time.Parse(dateLayout, declared)
	}
	if parts == nil {
		return time.Time{}, nil
	}
	y, _ := strconv.Atoi(parts[1])
	m, _ := strconv.Atoi(parts[2])
	d, _ := strconv.Atoi(parts[3])
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), nil
}

func titleWords(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
