package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stevedore/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Deploy holds deployment pipeline configuration: the managed root
// directory, scan exclusions, and per-step timeouts.
type Deploy struct {
	Root         string
	Excludes     []string
	ConfigPath   string
	SyncTimeout  time.Duration
	BuildTimeout time.Duration
	SettleDelay  time.Duration
}

// Flags returns CLI flags for deployment configuration
func (c *Deploy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repos-root",
			Usage:       "Root directory containing managed checkouts",
			Required:    true,
			Destination: &c.Root,
			Sources:     cli.EnvVars("STEVEDORE_REPOS_ROOT"),
		},
		&cli.StringSliceFlag{
			Name:        "exclude",
			Usage:       "Directory names excluded from discovery",
			Value:       []string{types.ServiceName},
			Destination: &c.Excludes,
			Sources:     cli.EnvVars("STEVEDORE_EXCLUDE"),
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Optional TOML file overriding deploy settings",
			Destination: &c.ConfigPath,
			Sources:     cli.EnvVars("STEVEDORE_CONFIG"),
		},
		&cli.DurationFlag{
			Name:        "sync-timeout",
			Usage:       "Timeout for source sync operations",
			Value:       3 * time.Minute,
			Destination: &c.SyncTimeout,
			Sources:     cli.EnvVars("STEVEDORE_SYNC_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:        "build-timeout",
			Usage:       "Timeout for workload image builds",
			Value:       10 * time.Minute,
			Destination: &c.BuildTimeout,
			Sources:     cli.EnvVars("STEVEDORE_BUILD_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:        "settle-delay",
			Usage:       "Wait before the post-start liveness check",
			Value:       5 * time.Second,
			Destination: &c.SettleDelay,
			Sources:     cli.EnvVars("STEVEDORE_SETTLE_DELAY"),
		},
	}
}

// fileConfig mirrors the optional TOML override file.
type fileConfig struct {
	Root         string   `toml:"root"`
	Excludes     []string `toml:"excludes"`
	SyncTimeout  string   `toml:"sync_timeout"`
	BuildTimeout string   `toml:"build_timeout"`
	SettleDelay  string   `toml:"settle_delay"`
}

// LoadFile applies overrides from the TOML file when one is
// configured. Unset fields keep their flag/env values.
func (c *Deploy) LoadFile() error {
	if c.ConfigPath == "" {
		return nil
	}

	raw, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", c.ConfigPath))
	}

	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", c.ConfigPath))
	}

	if fc.Root != "" {
		c.Root = fc.Root
	}
	if len(fc.Excludes) > 0 {
		c.Excludes = fc.Excludes
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{fc.SyncTimeout, &c.SyncTimeout},
		{fc.BuildTimeout, &c.BuildTimeout},
		{fc.SettleDelay, &c.SettleDelay},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return goerr.Wrap(err, "invalid duration in config file", goerr.V("value", d.raw))
		}
		*d.dst = v
	}

	return nil
}
