package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithStartingRating sets the rating of teams with no earlier season.
func WithStartingRating(r float64) Option {
	return func(s *MemoryStore) {
		if r > 0 {
			s.starting = r
		}
	}
}

// WithFloor sets the minimum rating enforced by Apply.
func WithFloor(f float64) Option {
	return func(s *MemoryStore) {
		if f > 0 {
			s.floor = f
		}
	}
}
