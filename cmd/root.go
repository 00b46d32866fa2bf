package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/virus-evolution/assemblender/pkg/config"
)

var configFile string

var (
	rootCmd = &cobra.Command{
		Use:     "assemblender",
		Short:   "deduplicate and extend assembly contigs from their pairwise alignments",
		Long:    `deduplicate and extend assembly contigs from their pairwise alignments`,
		Version: "0.1.0",
	}

	v = viper.New()
)

func init() {
	config.SetDefaults(v)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (yaml, toml or json) with default settings")
	rootCmd.PersistentFlags().String("log-level", "info", "One of debug, info, warn, error")

	v.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "assemblender",
	})
	logger.SetLevel(lvl)
	return logger, nil
}
