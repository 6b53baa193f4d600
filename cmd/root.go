// Package cmd is the drugcost command line: the HTTP service, the catalog
// ingest job and one-shot lookups against the local catalogs.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/giygas/drugcost-api/config"
	"github.com/giygas/drugcost-api/costs"
	"github.com/giygas/drugcost-api/ingest"
	"github.com/giygas/drugcost-api/logging"
	"github.com/giygas/drugcost-api/pipeline"
	"github.com/giygas/drugcost-api/resolver"
)

// app is the state shared by subcommands once the root pre-run has loaded it
type app struct {
	envFile string
	output  string
	cfg     *config.Config
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "drugcost",
		Short:         "Medicare Part D cost comparison for therapeutic equivalents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.output != "text" && a.output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'text' or 'json'", a.output)
			}
			return a.load()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return logging.DefaultLoggingService.Close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Environment file loaded before reading configuration")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "Output format (text, json)")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newIngestCmd(a))
	rootCmd.AddCommand(newCompareCmd(a))
	rootCmd.AddCommand(newLatestYearCmd(a))

	return rootCmd
}

// load reads the env file, validates the configuration and starts logging.
// A missing env file is not an error.
func (a *app) load() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logging.InitLoggerWithEnvironment(cfg.LogDir, cfg.Env, cfg.LogLevel, cfg.LogRetentionWeeks, cfg.MaxLogFileSize); err != nil {
		logging.Warn("File logging disabled", "log_dir", cfg.LogDir, "error", err)
	}
	return nil
}

// loader builds the catalog loader for the configured backend
func (a *app) loader() *ingest.Loader {
	return &ingest.Loader{
		Backend:    a.cfg.CatalogBackend,
		Sources:    a.sources(),
		ProductsDB: a.cfg.ProductsDB,
		MedicareDB: a.cfg.MedicareDB,
	}
}

func (a *app) sources() ingest.Sources {
	return ingest.Sources{
		OrangeBookFile: a.cfg.OrangeBookFile,
		PartDFile:      a.cfg.PartDFile,
	}
}

// pipelineOptions maps the tuning variables onto the pipeline
func (a *app) pipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Resolver = resolver.Options{
		StrengthBonus: a.cfg.StrengthBonus,
		RowCap:        a.cfg.IdentityRowCap,
		PrefixMinLen:  a.cfg.PrefixMinLen,
		PrefixLen:     a.cfg.PrefixLen,
		Scorer:        resolver.PartialRatio,
	}
	opts.EquivalentRowCap = a.cfg.EquivalentRowCap
	opts.Join = costs.JoinOptions{
		CandidateLimit: a.cfg.CandidateCostLimit,
		FallbackTerms:  a.cfg.FallbackTermLimit,
		Parallelism:    a.cfg.LookupParallelism,
	}
	return opts
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
