package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/okian/olyrank/pkg/metrics"
)

// Treap-based leaderboard index.
//
// Ordering: rating DESC, then team ID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the
// leaderboard from best to worst. Subtree sizes give O(log n) ranks.

// ratingScale fixes ratings to 6 decimal places so equal ratings tie exactly.
const ratingScale = 1_000_000

type ratingFP int64

func toFixedPoint(x float64) ratingFP {
	switch {
	case math.IsNaN(x):
		return 0
	case x*ratingScale >= math.MaxInt64:
		return ratingFP(math.MaxInt64)
	case x*ratingScale <= math.MinInt64:
		return ratingFP(math.MinInt64)
	}
	return ratingFP(math.Round(x * ratingScale))
}

func toFloat(x ratingFP) float64 {
	return float64(x) / ratingScale
}

// Standing is one leaderboard row.
type Standing struct {
	Rank   int     `json:"rank"`
	State  string  `json:"state"`
	Team   string  `json:"team"`
	Rating float64 `json:"rating"`
}

// ID is the leaderboard key of a team.
func (s Standing) ID() string {
	return s.State + "|" + s.Team
}

type node struct {
	id     string
	rating ratingFP
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRating, aID) should appear before (bRating, bID).
func less(aRating ratingFP, aID string, bRating ratingFP, bID string) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, r ratingFP, prio uint64) *node {
	if n == nil {
		return &node{id: id, rating: r, prio: prio, size: 1}
	}
	if less(r, id, n.rating, n.id) {
		n.left = insert(n.left, id, r, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, r, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, r ratingFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case r == n.rating && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, r)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, r)
		}
	case less(r, id, n.rating, n.id):
		n.left = deleteNode(n.left, id, r)
	default:
		n.right = deleteNode(n.right, id, r)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes rate strictly higher than r.
func countAbove(n *node, r ratingFP) int {
	count := 0
	for n != nil {
		if n.rating > r {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

type member struct {
	state  string
	team   string
	rating ratingFP
}

// Leaderboard ranks teams of one (season, category) by rating.
// Ranks use competition ranking: equal ratings share a rank and the next
// rank skips the tied positions.
type Leaderboard struct {
	mu   sync.RWMutex
	root *node
	byID map[string]member
}

// NewLeaderboard constructs an empty leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{byID: make(map[string]member)}
}

// Upsert sets a team's rating, replacing any previous one.
func (l *Leaderboard) Upsert(_ context.Context, state, team string, r float64) {
	id := state + "|" + team
	fp := toFixedPoint(r)

	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.byID[id]; ok {
		if old.rating == fp {
			return
		}
		l.root = deleteNode(l.root, id, old.rating)
	}
	l.byID[id] = member{state: state, team: team, rating: fp}
	l.root = insert(l.root, id, fp, rand.Uint64()) //nolint:gosec // treap priority, not security
}

// Rank returns the standing of one team.
func (l *Leaderboard) Rank(_ context.Context, state, team string) (Standing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.byID[state+"|"+team]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Standing{}, ErrNotFound
	}
	return Standing{
		Rank:   countAbove(l.root, m.rating) + 1,
		State:  m.state,
		Team:   m.team,
		Rating: toFloat(m.rating),
	}, nil
}

// TopN returns the best n standings.
func (l *Leaderboard) TopN(_ context.Context, n int) ([]Standing, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(l.byID)))
	collectTopN(l.root, n, &nodes)

	out := make([]Standing, len(nodes))
	for i, nd := range nodes {
		m := l.byID[nd.id]
		out[i] = Standing{Rank: i + 1, State: m.state, Team: m.team, Rating: toFloat(nd.rating)}
		if i > 0 && nodes[i-1].rating == nd.rating {
			out[i].Rank = out[i-1].Rank
		}
	}
	return out, nil
}

// Count returns the number of ranked teams.
func (l *Leaderboard) Count(_ context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}
