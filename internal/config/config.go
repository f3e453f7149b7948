// Package config defines process configuration and its loading.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers a YAML file and OLYRANK_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/olyrank/internal/domain/rating"
	"github.com/okian/olyrank/internal/domain/reclass"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for `serve`, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ResultsDir is walked for <name>_<division>.yaml result files.
	ResultsDir string `koanf:"results_dir"`

	// OutputDir receives states<division>/ group files. Empty disables the file sink.
	OutputDir string `koanf:"output_dir"`

	// Divisions is a comma separated list, e.g. "B,C".
	Divisions string `koanf:"divisions"`

	// SeasonsToInclude keeps the N most recent seasons; 0 keeps all.
	SeasonsToInclude int `koanf:"seasons_to_include"`

	// WorkerCount bounds how many divisions are recomputed in parallel.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the division job queue.
	QueueSize int `koanf:"queue_size"`

	// BadgerPath enables the badger snapshot sink when set.
	BadgerPath string `koanf:"badger_path"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// ResultsBaseURL is joined with a result file's stem to form history and
	// timeline links. Empty stores the bare stem.
	ResultsBaseURL string `koanf:"results_base_url"`

	// Metric naming. Series are <namespace>_<subsystem>_<prefix>_<name>.
	MetricsNamespace string            `koanf:"metrics_namespace"`
	MetricsSubsystem string            `koanf:"metrics_subsystem"`
	MetricsPrefix    string            `koanf:"metrics_prefix"`
	MetricsLabels    map[string]string `koanf:"metrics_labels"`

	// MetricsLatencyBuckets are the millisecond buckets of duration histograms.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`

	// Rating engine constants.
	StartingRating          float64 `koanf:"starting_rating"`
	RatingFloor             float64 `koanf:"rating_floor"`
	ScalingFactor           float64 `koanf:"scaling_factor"`
	CompetitivenessFactor   float64 `koanf:"competitiveness_factor"`
	CompetitivenessBaseline float64 `koanf:"competitiveness_baseline"`
	TopFraction             float64 `koanf:"top_fraction"`
	FirstVolatility         float64 `koanf:"first_volatility"`
	SecondVolatility        float64 `koanf:"second_volatility"`
	StateMultiplier         float64 `koanf:"state_multiplier"`
	NationalMultiplier      float64 `koanf:"national_multiplier"`
	DampingScale            float64 `koanf:"damping_scale"`
	DampingStrength         float64 `koanf:"damping_strength"`
	MaxLoss                 float64 `koanf:"max_loss"`

	// Reclassification thresholds.
	ReclassRatingThreshold float64 `koanf:"reclass_rating_threshold"`
	ReclassDeltaThreshold  float64 `koanf:"reclass_delta_threshold"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		ResultsDir:          "data/results",
		OutputDir:           "data/output",
		Divisions:           "B,C",
		SeasonsToInclude:    5,
		WorkerCount:         runtime.NumCPU(),
		QueueSize:           16,
		MaxLeaderboardLimit: 100,
		ResultsBaseURL:      "https://www.duosmium.org/results/",
		MetricsNamespace:    "olyrank",
		MetricsSubsystem:    "ratings",

		StartingRating:          1500,
		RatingFloor:             100,
		ScalingFactor:           140,
		CompetitivenessFactor:   0.5,
		CompetitivenessBaseline: 1500,
		TopFraction:             0.7,
		FirstVolatility:         1.5,
		SecondVolatility:        1.1,
		StateMultiplier:         4.0,
		NationalMultiplier:      7.0,
		DampingScale:            100,
		DampingStrength:         0.3,
		MaxLoss:                 200,

		ReclassRatingThreshold: 2000,
		ReclassDeltaThreshold:  -90,
	}
}

// DivisionList splits Divisions into trimmed, upper-cased, de-duplicated names.
func (c *Config) DivisionList() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range strings.Split(c.Divisions, ",") {
		d = strings.ToUpper(strings.TrimSpace(d))
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// RatingParams projects the engine constants.
func (c *Config) RatingParams() rating.Params {
	return rating.Params{
		StartingRating:          c.StartingRating,
		Floor:                   c.RatingFloor,
		ScalingFactor:           c.ScalingFactor,
		CompetitivenessFactor:   c.CompetitivenessFactor,
		CompetitivenessBaseline: c.CompetitivenessBaseline,
		TopFraction:             c.TopFraction,
		FirstVolatility:         c.FirstVolatility,
		SecondVolatility:        c.SecondVolatility,
		StateMultiplier:         c.StateMultiplier,
		NationalMultiplier:      c.NationalMultiplier,
		DampingScale:            c.DampingScale,
		DampingStrength:         c.DampingStrength,
		MaxLoss:                 c.MaxLoss,
	}
}

// ReclassParams projects the reclassification thresholds.
func (c *Config) ReclassParams() reclass.Params {
	return reclass.Params{
		RatingThreshold: c.ReclassRatingThreshold,
		DeltaThreshold:  c.ReclassDeltaThreshold,
	}
}

// Validate checks field ranges the engine relies on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case len(c.DivisionList()) == 0:
		return fmt.Errorf("%w: at least one division is required", ErrInvalidConfig)
	case c.RatingFloor <= 0 || c.RatingFloor >= c.StartingRating:
		return fmt.Errorf("%w: rating_floor must be in (0, starting_rating)", ErrInvalidConfig)
	case c.TopFraction <= 0 || c.TopFraction > 1:
		return fmt.Errorf("%w: top_fraction must be in (0, 1]", ErrInvalidConfig)
	case c.DampingScale <= 0:
		return fmt.Errorf("%w: damping_scale must be positive", ErrInvalidConfig)
	case c.DampingStrength < 0 || c.DampingStrength >= 1:
		return fmt.Errorf("%w: damping_strength must be in [0, 1)", ErrInvalidConfig)
	case c.MaxLoss <= 0:
		return fmt.Errorf("%w: max_loss must be positive", ErrInvalidConfig)
	case c.CompetitivenessBaseline <= 0:
		return fmt.Errorf("%w: competitiveness_baseline must be positive", ErrInvalidConfig)
	case c.ReclassDeltaThreshold >= 0:
		return fmt.Errorf("%w: reclass_delta_threshold must be negative", ErrInvalidConfig)
	}
	return nil
}
