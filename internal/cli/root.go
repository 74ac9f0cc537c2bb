// Package cli implements the paper-review command line.
package cli

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"paper-review-rag/internal/config"
)

const defaultConfigPath = "./configs/config.yaml"

var (
	configPath string
	verbose    bool

	// cfg is loaded before any sub-command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "paper-review",
	Short: "Research assistant for arXiv papers and their video reviews",
	Long: `Search arXiv, keep a catalog of interesting papers, translate abstracts,
find and transcribe review videos, and ask questions answered from the paper
and transcript indexes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		setupLogging(verbose)
		loaded, err := loadConfig(configPath, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setupLogging(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

// loadConfig falls back to defaults when the default config file is absent.
// A file named explicitly must exist.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	c, err := config.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		log.Debug().Str("path", path).Msg("No config file, using defaults")
		return config.Default(), nil
	}
	return c, err
}
