package cli

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/persona/internal/cache"
	"github.com/ppiankov/persona/internal/corpus"
	"github.com/ppiankov/persona/internal/report"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear cached user activity",
	Long: `Cached activity lives under cache.dir/users, one JSON file per user.
Records are never removed automatically; use "cache clear".`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		store := cache.NewDiskStore(cfg.Cache.Dir)

		keys, err := store.List()
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cached users.")
			return nil
		}

		now := time.Now()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "USER\tITEMS\tLAST FETCHED\tSTATE")
		for _, key := range keys {
			rec, err := store.Read(key)
			if err != nil || rec == nil {
				fmt.Fprintf(w, "%s\t-\t-\tunreadable\n", key)
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", rec.Username, len(rec.Items),
				rec.LastFetched.Format(time.RFC3339), freshness(rec.LastFetched, cfg.Cache.MaxAge, now))
		}
		return w.Flush()
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <user>",
	Short: "Show the cached activity of one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		store := cache.NewDiskStore(cfg.Cache.Dir)

		rec, err := store.Read(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if rec == nil {
			fmt.Fprintf(out, "No cached activity for %s.\n", args[0])
			return nil
		}

		fmt.Fprintf(out, "User:          %s\n", rec.Username)
		fmt.Fprintf(out, "Items:         %d\n", len(rec.Items))
		fmt.Fprintf(out, "Last fetched:  %s (%s)\n", rec.LastFetched.Format(time.RFC3339), freshness(rec.LastFetched, cfg.Cache.MaxAge, time.Now()))
		if rec.Cursor.IsZero() {
			fmt.Fprintf(out, "History:       complete\n")
		} else {
			fmt.Fprintf(out, "History:       more pages (posts %q, comments %q)\n", rec.Cursor.Posts, rec.Cursor.Comments)
		}
		if rec.Partial {
			fmt.Fprintf(out, "Incomplete:    %s\n", rec.Note)
		}
		fmt.Fprintln(out)

		for i, item := range rec.Items {
			fmt.Fprint(out, corpus.Line(i, item, report.Excerpt(corpus.ItemText(item))))
		}
		return nil
	},
}

var clearAll bool

var cacheClearCmd = &cobra.Command{
	Use:   "clear [user]",
	Short: "Remove cached activity for one user, or everything with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !clearAll {
			return fmt.Errorf("name a user or pass --all")
		}

		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		store := cache.NewDiskStore(cfg.Cache.Dir)
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Cleared cached activity for %s\n", args[0])
			return nil
		}

		keys, err := store.List()
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := store.Delete(key); err != nil {
				return err
			}
		}
		if err := cache.NewDiskCache(filepath.Join(cfg.Cache.Dir, "llm"), cfg.LLM.CacheTTL).Clear(); err != nil {
			return fmt.Errorf("clear generator cache: %w", err)
		}
		fmt.Fprintf(out, "✓ Cleared %d cached users and the generator cache\n", len(keys))
		return nil
	},
}

// freshness labels a record as fresh or stale against maxAge
func freshness(lastFetched time.Time, maxAge time.Duration, now time.Time) string {
	age := now.Sub(lastFetched).Round(time.Second)
	if now.Sub(lastFetched) > maxAge {
		return fmt.Sprintf("stale, %s old", age)
	}
	return fmt.Sprintf("fresh, %s old", age)
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().BoolVar(&clearAll, "all", false, "clear every cached user and the generator cache")
}
