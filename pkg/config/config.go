// Package config holds the settings for one blending run. They are unmarshalled
// from viper, which merges command line flags, an optional config file and
// ASSEMBLENDER_ environment variables (see: /cmd)
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/virus-evolution/assemblender/pkg/merge"
)

const EnvPrefix = "ASSEMBLENDER"

var errInvalid = errors.New("invalid configuration")

// Thresholds are the classification settings passed to the engine
type Thresholds struct {
	// identity at or below which records are ignored
	MinIdentity float64 `mapstructure:"min-identity"`

	// identity required for containment inside an existing composite
	ContainIdentity float64 `mapstructure:"contain-identity"`

	// coverage and identity for near-containment
	NearCoverage float64 `mapstructure:"near-coverage"`
	NearIdentity float64 `mapstructure:"near-identity"`

	StartSlack int `mapstructure:"start-slack"`
	EndSlack   int `mapstructure:"end-slack"`
}

// Config is the root-level settings struct
type Config struct {
	Alignments string `mapstructure:"alignments"`
	Assembly   string `mapstructure:"assembly"`
	Run        string `mapstructure:"run"`
	// coords or sam
	Format   string `mapstructure:"format"`
	Scaffold bool   `mapstructure:"scaffold"`
	Wrap     int    `mapstructure:"wrap"`
	OutDir   string `mapstructure:"outdir"`
	LogLevel string `mapstructure:"log-level"`

	Thresholds `mapstructure:",squash"`
}

// SetDefaults registers every default on v and binds the environment
func SetDefaults(v *viper.Viper) {
	d := merge.DefaultOptions()

	v.SetDefault("format", "coords")
	v.SetDefault("wrap", 0)
	v.SetDefault("log-level", "info")
	v.SetDefault("min-identity", d.MinIdentity)
	v.SetDefault("contain-identity", d.ContainIdentity)
	v.SetDefault("near-coverage", d.NearCoverage)
	v.SetDefault("near-identity", d.NearIdentity)
	v.SetDefault("start-slack", d.StartSlack)
	v.SetDefault("end-slack", d.EndSlack)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads file into v if it is set, then decodes and validates the result
func Load(v *viper.Viper, file string) (Config, error) {
	var c Config

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding configuration: %w", err)
	}

	return c, c.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Alignments == "":
		return fmt.Errorf("%w: no alignment file", errInvalid)
	case c.Assembly == "":
		return fmt.Errorf("%w: no assembly file", errInvalid)
	case c.Run == "":
		return fmt.Errorf("%w: no run name", errInvalid)
	case c.Format != "coords" && c.Format != "sam":
		return fmt.Errorf("%w: unknown alignment format %q", errInvalid, c.Format)
	case c.StartSlack < 1 || c.EndSlack < 1:
		return fmt.Errorf("%w: terminus slack must be positive", errInvalid)
	}

	for name, pc := range map[string]float64{
		"min-identity":     c.MinIdentity,
		"contain-identity": c.ContainIdentity,
		"near-coverage":    c.NearCoverage,
		"near-identity":    c.NearIdentity,
	} {
		if pc <= 0 || pc > 100 {
			return fmt.Errorf("%w: %s must be in (0,100], got %v", errInvalid, name, pc)
		}
	}

	return nil
}

// Options converts the thresholds for the engine
func (c Config) Options() merge.Options {
	return merge.Options{
		MinIdentity:     c.MinIdentity,
		ContainIdentity: c.ContainIdentity,
		NearCoverage:    c.NearCoverage,
		NearIdentity:    c.NearIdentity,
		StartSlack:      c.StartSlack,
		EndSlack:        c.EndSlack,
	}
}

// Paths are the output file names for a run
type Paths struct {
	Fasta      string
	Index      string
	Contigs    string
	ContigIn   string
	ContigSelf string
	Report     string
}

// Paths names the outputs after the input files and the run. Without an output
// directory they sit beside the inputs
func (c Config) Paths() Paths {
	asm := c.prefix(c.Assembly)
	aln := c.prefix(c.Alignments)

	return Paths{
		Fasta:      asm + ".fa",
		Index:      asm + ".fa.fai",
		Contigs:    aln + "_contigs.out",
		ContigIn:   aln + "_contig_in.out",
		ContigSelf: aln + "_contig_self.out",
		Report:     aln + "_report.out",
	}
}

func (c Config) prefix(input string) string {
	stem := strings.TrimSuffix(input, filepath.Ext(input))
	if c.OutDir != "" {
		stem = filepath.Join(c.OutDir, filepath.Base(stem))
	}
	return stem + "_" + c.Run
}
