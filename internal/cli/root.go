package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X ...cli.version=..."
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
	logJSON bool
	logger  = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "persona",
	Short: "Persona - citation-backed persona reports from Reddit activity",
	Long: `Persona builds a persona report for a Reddit user from their public
posts and comments.

Activity is fetched once and cached per user, indexed into a corpus of
numbered sources, and handed to an LLM that must cite those sources.
Every trait in the report lists the posts and comments it came from.

Persona describes what a user wrote. It does not verify who they are.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadDotEnvs("")
		if err := initConfig(viper.GetViper()); err != nil {
			return err
		}

		var err error
		logger, err = newLogger(verbose, logJSON)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Persona.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "persona %s\n", version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.persona/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")

	rootCmd.AddCommand(versionCmd)
}

// loadDotEnvs loads credentials from .env files. Earlier files win because
// godotenv never overrides a variable that is already set.
func loadDotEnvs(rootPath string) {
	_ = godotenv.Load(filepath.Join(rootPath, ".env.local"))
	_ = godotenv.Load(filepath.Join(rootPath, ".env"))
}

// newLogger builds the process logger. Console output stays quiet below
// warnings unless verbose, so it does not drown the progress lines.
func newLogger(verbose, jsonOutput bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.DisableStacktrace = true

	level := zapcore.WarnLevel
	if jsonOutput {
		level = zapcore.InfoLevel
	} else {
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	return config.Build()
}

// configDir returns ~/.persona
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, ".persona"), nil
}
