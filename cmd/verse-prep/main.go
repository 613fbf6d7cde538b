// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the verse-prep CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/verse-prep/internal/logging"
	"github.com/pdiddy/verse-prep/internal/secrets"
	"github.com/pdiddy/verse-prep/internal/subheading"
	"github.com/pdiddy/verse-prep/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds store credentials loaded from the secrets
	// directory at startup.
	loadedSecrets secrets.Secrets

	logger = zap.NewNop()
)

// rootCmd is the base command for the verse-prep CLI.
var rootCmd = &cobra.Command{
	Use:   "verse-prep",
	Short: "Prepare a Bible verse dataset for the verse-guessing game",
	Long: `verse-prep cleans a Bible verse CSV by removing section subheadings that
were fused onto the start of verse text, then loads the cleaned verses into a
document store or exports them as the front end's bible.json asset.

Each stage is a subcommand: strip, clean, upload, export, and search.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := logging.New(verbose)
		if err != nil {
			return err
		}
		logger = l

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", zap.Strings("names", s.Names()))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./verse-prep.yaml or ~/.config/verse-prep/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of credential files, one per key")
	rootCmd.PersistentFlags().String("density", "", "heading lowercase measure: sentence (default) or lowercase")
	if err := viper.BindPFlag("strip.density", rootCmd.PersistentFlags().Lookup("density")); err != nil {
		panic(fmt.Sprintf("binding flag density: %v", err))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("verse-prep")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "verse-prep"))
		}
	}

	viper.SetEnvPrefix("VERSE_PREP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlags maps command flags to config keys so a flag given on the
// command line overrides the config file and environment.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

// stripConfig reads the strip: section of the configuration.
func stripConfig() types.StripConfig {
	return types.StripConfig{
		Density:            viper.GetString("strip.density"),
		LowercaseThreshold: viper.GetInt("strip.lowercase_threshold"),
		MaxHeadingLength:   viper.GetInt("strip.max_heading_length"),
		MinBodyMargin:      viper.GetInt("strip.min_body_margin"),
		MinHeadingWords:    viper.GetInt("strip.min_heading_words"),
		KnownPrefixes:      viper.GetStringSlice("strip.known_prefixes"),
	}
}

func newStripper() *subheading.Stripper {
	opts := subheading.OptionsFromConfig(stripConfig())
	if opts.Density != "" && !opts.Density.Valid() {
		logger.Warn("unknown strip.density, using sentence", zap.String("density", string(opts.Density)))
	}
	return subheading.New(opts)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
