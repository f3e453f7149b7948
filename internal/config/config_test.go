package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/olyrank/internal/config"
	"github.com/okian/olyrank/internal/domain/rating"
	"github.com/okian/olyrank/internal/domain/reclass"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then the process settings should be sensible", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.SeasonsToInclude, convey.ShouldEqual, 5)
			convey.So(cfg.ResultsBaseURL, convey.ShouldEqual, "https://www.duosmium.org/results/")
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "olyrank")
			convey.So(cfg.DivisionList(), convey.ShouldResemble, []string{"B", "C"})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the engine constants should match the domain defaults", func() {
			convey.So(cfg.RatingParams(), convey.ShouldResemble, rating.DefaultParams())
			convey.So(cfg.ReclassParams(), convey.ShouldResemble, reclass.DefaultParams())
		})
	})
}

func TestConfig_DivisionList(t *testing.T) {
	convey.Convey("Given a messy divisions value", t, func() {
		cfg := config.New()
		cfg.Divisions = " c, b ,,C "

		convey.Convey("Then names are trimmed, upper-cased and de-duplicated in order", func() {
			convey.So(cfg.DivisionList(), convey.ShouldResemble, []string{"C", "B"})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with out-of-range values", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":           func(c *config.Config) { c.Addr = "" },
			"no divisions":         func(c *config.Config) { c.Divisions = " , " },
			"floor above start":    func(c *config.Config) { c.RatingFloor = 2000 },
			"zero top fraction":    func(c *config.Config) { c.TopFraction = 0 },
			"zero damping scale":   func(c *config.Config) { c.DampingScale = 0 },
			"full damping":         func(c *config.Config) { c.DampingStrength = 1 },
			"non-positive cap":     func(c *config.Config) { c.MaxLoss = 0 },
			"zero baseline":        func(c *config.Config) { c.CompetitivenessBaseline = 0 },
			"non-negative reclass": func(c *config.Config) { c.ReclassDeltaThreshold = 10 },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.Convey("Then "+name+" should be rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
