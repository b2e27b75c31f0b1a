// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citeformat CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citeformat/internal/cache"
	"github.com/pdiddy/citeformat/internal/config"
	"github.com/pdiddy/citeformat/internal/crossref"
	"github.com/pdiddy/citeformat/internal/secrets"
	"github.com/pdiddy/citeformat/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the validated configuration, loaded before any command runs.
	cfg types.Config

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

// offline marks commands that never contact CrossRef; they skip loading
// and validating the configuration.
var offline = map[string]string{"offline": "true"}

// rootCmd is the base command for the citeformat CLI.
var rootCmd = &cobra.Command{
	Use:   "citeformat",
	Short: "Turn DOIs and loose reference lines into formatted citations",
	Long: `citeformat reads one reference per line (a DOI, or fields such as
"Hinton | Nature | 2006" separated by "|"), resolves each against CrossRef
and writes a numbered reference list in one of ten citation styles.

Lines starting with # are comments. Ambiguous lines show the top CrossRef
matches to pick from.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
		if cmd.Annotations["offline"] == "true" {
			return nil
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		loaded, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		secrets.Apply(&loaded, s)
		if err := config.Validate(loaded); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citeformat.yaml or ~/.config/citeformat/citeformat.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log requests, retries and cache activity")
	rootCmd.PersistentFlags().String("email", "", "contact address for the CrossRef polite pool")
	rootCmd.PersistentFlags().String("cache", "", "metadata cache backend: none, sqlite, badger, upstash")
	rootCmd.PersistentFlags().String("cache-path", "", "cache database file (sqlite) or directory (badger)")

	_ = viper.BindPFlag("crossref.contact_email", rootCmd.PersistentFlags().Lookup("email"))
	_ = viper.BindPFlag("cache.backend", rootCmd.PersistentFlags().Lookup("cache"))
	_ = viper.BindPFlag("cache.path", rootCmd.PersistentFlags().Lookup("cache-path"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citeformat")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citeformat"))
		}
	}

	viper.SetEnvPrefix("CITEFORMAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// openClient builds the CrossRef client over the configured cache. The
// returned counter reports cache hits and misses; the caller closes the
// backend.
func openClient() (*crossref.Client, *cache.Counting, cache.Backend) {
	backend := cache.Open(cfg.Cache, logger)
	counting := cache.NewCounting(backend)
	client := crossref.New(cfg.Crossref,
		crossref.WithCache(counting, cfg.Cache.SearchTTL),
		crossref.WithLogger(logger),
	)
	return client, counting, backend
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
