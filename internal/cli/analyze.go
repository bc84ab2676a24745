package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/persona/internal/model"
	"github.com/ppiankov/persona/internal/pipeline"
	"github.com/ppiankov/persona/internal/report"
	"github.com/ppiankov/persona/internal/source"
)

// runFlags are shared by analyze and batch
type runFlags struct {
	limit       int
	maxAge      time.Duration
	outDir      string
	noCache     bool
	timeout     time.Duration
	mode        string
	llmProvider string
	llmModel    string
}

var (
	analyzeFlags runFlags
	printReport  bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <user>",
	Short: "Build a persona report for one Reddit user",
	Long: `Analyze fetches a user's recent public posts and comments (or reuses
the cached copy), indexes them as numbered sources, asks the LLM for an
executive summary and a comprehensive persona, and writes a report in which
every trait lists the sources it cites.

The user may be given as a profile URL, /u/name, u/name or a bare name.

Example:
  persona analyze spez
  persona analyze https://www.reddit.com/user/spez/ --limit 50
  persona analyze u/spez --llm-provider openai --llm-model gpt-4o-mini --out ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addRunFlags(analyzeCmd, &analyzeFlags, 5*time.Minute)
	analyzeCmd.Flags().BoolVar(&printReport, "print", false, "also print the report to stdout")
}

func addRunFlags(cmd *cobra.Command, f *runFlags, defaultTimeout time.Duration) {
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of items to analyze (default from fetch.item_limit)")
	cmd.Flags().DurationVar(&f.maxAge, "max-age", 0, "reuse cached activity younger than this (default from cache.max_age)")
	cmd.Flags().StringVar(&f.outDir, "out", "", "report output directory (default from output.dir)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "ignore cached activity and fetch from scratch")
	cmd.Flags().DurationVar(&f.timeout, "timeout", defaultTimeout, "overall run timeout")
	cmd.Flags().StringVar(&f.mode, "mode", "", "source mode: oauth, public or feed (default from reddit.mode)")
	cmd.Flags().StringVar(&f.llmProvider, "llm-provider", "", "LLM provider: groq, openai, anthropic, ollama")
	cmd.Flags().StringVar(&f.llmModel, "llm-model", "", "LLM model name")
}

// runConfig loads the effective config and applies the flags that were set
func runConfig(cmd *cobra.Command, f *runFlags) (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("limit") {
		cfg.Fetch.ItemLimit = f.limit
	}
	if flags.Changed("max-age") {
		cfg.Cache.MaxAge = f.maxAge
	}
	if flags.Changed("out") {
		cfg.Output.Dir = f.outDir
	}
	if flags.Changed("mode") {
		cfg.Reddit.Mode = f.mode
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = f.llmProvider
		if !flags.Changed("llm-model") {
			// The configured model belongs to the configured provider
			cfg.LLM.Model = ""
		}
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = f.llmModel
	}
	cfg.Output.Verbose = verbose
	cfg.Output.LogJSON = logJSON

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd, &analyzeFlags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, analyzeFlags.timeout)
	defer cancel()

	p, err := pipeline.New(cfg, pipeline.Options{ForceRefresh: analyzeFlags.noCache}, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing %s (limit %d, mode %s)...\n", args[0], cfg.Fetch.ItemLimit, cfg.Reddit.Mode)

	r, path, err := p.Run(ctx, args[0])
	if err != nil {
		return describe(err)
	}

	printStats(r)
	fmt.Fprintf(os.Stderr, "✓ Wrote report: %s\n", path)

	if printReport {
		fmt.Fprint(cmd.OutOrStdout(), report.Format(r))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

func printStats(r *model.Report) {
	origin := "fetched"
	if r.Stats.FromCache {
		origin = "cached"
	}
	fmt.Fprintf(os.Stderr, "✓ %d items (%s, %d new), %d in corpus\n", r.Stats.Items, origin, r.Stats.Fetched, r.Stats.Included)
	fmt.Fprintf(os.Stderr, "✓ %d sources cited", r.CitedCount())
	if dropped := len(r.Summary.Dropped) + len(r.Persona.Dropped); dropped > 0 {
		fmt.Fprintf(os.Stderr, ", %d unknown citations dropped", dropped)
	}
	fmt.Fprintln(os.Stderr)
	if r.Partial {
		fmt.Fprintf(os.Stderr, "⚠️  Activity is incomplete: %s\n", r.PartialNote)
	}
}

// describe adds a hint for failures the user can act on
func describe(err error) error {
	switch {
	case errors.Is(err, source.ErrUnauthorized):
		return fmt.Errorf("%w\nhint: check REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET, or use --mode public", err)
	case errors.Is(err, source.ErrNotFound):
		return fmt.Errorf("%w\nhint: the user may not exist, be suspended, or have no public activity", err)
	case errors.Is(err, source.ErrInvalidUsername):
		return fmt.Errorf("%w\nhint: pass a name like spez, u/spez or https://www.reddit.com/user/spez", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w\nhint: increase --timeout", err)
	}
	return err
}
