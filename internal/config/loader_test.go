package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/olyrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.ScalingFactor, convey.ShouldEqual, 140)
				convey.So(cfg.MaxLoss, convey.ShouldEqual, 200)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("OLYRANK_ADDR", ":8080")
			_ = os.Setenv("OLYRANK_DIVISIONS", "C")
			_ = os.Setenv("OLYRANK_SEASONS_TO_INCLUDE", "3")
			_ = os.Setenv("OLYRANK_NATIONAL_MULTIPLIER", "6.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DivisionList(), convey.ShouldResemble, []string{"C"})
				convey.So(cfg.SeasonsToInclude, convey.ShouldEqual, 3)
				convey.So(cfg.NationalMultiplier, convey.ShouldEqual, 6.5)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
results_dir: "/srv/results"
worker_count: 4
state_multiplier: 3.5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("OLYRANK_CONFIG", tmpFile)
			_ = os.Setenv("OLYRANK_WORKER_COUNT", "2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ResultsDir, convey.ShouldEqual, "/srv/results")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.StateMultiplier, convey.ShouldEqual, 3.5)
				convey.So(cfg.DampingStrength, convey.ShouldEqual, 0.3)
			})
		})

		convey.Convey("When the file sets links and metric naming", func() {
			yamlContent := `
results_base_url: "https://results.example.org/"
metrics_namespace: scioly
metrics_prefix: v2
metrics_labels:
  site: ohio
metrics_latency_buckets: [5, 50, 500]
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("OLYRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then they are loaded next to the defaults they do not touch", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ResultsBaseURL, convey.ShouldEqual, "https://results.example.org/")
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "scioly")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "ratings")
				convey.So(cfg.MetricsPrefix, convey.ShouldEqual, "v2")
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, map[string]string{"site": "ohio"})
				convey.So(cfg.MetricsLatencyBuckets, convey.ShouldResemble, []float64{5, 50, 500})
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("OLYRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("OLYRANK_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("OLYRANK_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("OLYRANK_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"OLYRANK_CONFIG",
		"OLYRANK_ADDR",
		"OLYRANK_DIVISIONS",
		"OLYRANK_SEASONS_TO_INCLUDE",
		"OLYRANK_NATIONAL_MULTIPLIER",
		"OLYRANK_WORKER_COUNT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "olyrank-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
