package model

import (
	"regexp"
	"sort"
	"strings"
)

var stateNames = map[string]string{ //nolint:gochecknoglobals // static lookup table
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
	"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "FL": "Florida", "GA": "Georgia",
	"HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
	"MT": "Montana", "NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
	"VA": "Virginia", "WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
	"DC": "District of Columbia",
}

// StateName returns the full name for a state code, or the code itself.
func StateName(code string) string {
	if name, ok := stateNames[code]; ok {
		return name
	}
	return code
}

// KnownState reports whether code is one of the 50 states or DC.
func KnownState(code string) bool {
	_, ok := stateNames[code]
	return ok
}

// KnownStates returns the known state codes among codes, sorted.
func KnownStates(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if KnownState(c) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

var (
	nationalsPattern   = regexp.MustCompile(`(?i)\bnationals\b`)
	bracketPattern     = regexp.MustCompile(`\[([^,\]]+),\s*([A-Z]{2})\]`)
	stateStatesPattern = regexp.MustCompile(`(?i)\b([a-z]?)([a-z]{2})\s+states\b`)
)

const (
	nationalTournament = "Science Olympiad National Tournament"
	stateTournament    = "Science Olympiad State Tournament"
)

// NormalizeTournamentName rewrites shorthand championship names:
// "nationals", "[prefix, XX]" and "<s|n>XX states".
func NormalizeTournamentName(name string) string {
	if name == "" {
		return name
	}
	out := nationalsPattern.ReplaceAllString(name, nationalTournament)

	out = bracketPattern.ReplaceAllStringFunc(out, func(m string) string {
		sub := bracketPattern.FindStringSubmatch(m)
		return StateName(sub[2]) + " " + stateTournament
	})

	out = stateStatesPattern.ReplaceAllStringFunc(out, func(m string) string {
		sub := stateStatesPattern.FindStringSubmatch(m)
		prefix, code := strings.ToLower(sub[1]), strings.ToUpper(sub[2])
		if !KnownState(code) {
			return m
		}
		state := StateName(code)
		if code == "CA" {
			switch prefix {
			case "s":
				state = "Southern California"
			case "n":
				state = "Northern California"
			}
		}
		return state + " " + stateTournament
	})
	return out
}
