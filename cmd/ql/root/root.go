package root

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"questlife/internal/config"
	"questlife/internal/game"
	qlog "questlife/internal/log"
	"questlife/internal/ui"
)

const Version = "0.1.0"

// flags bound on the root command; cfg is resolved from them before any
// subcommand runs.
var (
	configPath string
	dbOverride string
	verbose    bool
	cfg        *config.Config
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ql",
		Short:         "Questlife — gamified life tracker",
		Long:          "Questlife turns habits, dailies and to-dos into quests that level up your hero and fill your progress bars.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.DefaultPath+")")
	cmd.PersistentFlags().StringVar(&dbOverride, "db", "", "Database path (overrides config)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(
		newStatusCmd(),
		newQuestCmd(),
		newDoCmd(),
		newTodayCmd(),
		newBarCmd(),
		newHeroCmd(),
		newBoardCmd(),
	)
	return cmd
}

func loadConfig() error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbOverride != "" {
		if c.DBPath, err = config.ExpandPath(dbOverride); err != nil {
			return err
		}
	}
	level, err := qlog.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	if verbose {
		level = log.DebugLevel
	}
	qlog.SetLevel(level)
	cfg = c
	return nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

// renderError shows shortfalls as warnings and everything else as errors.
func renderError(err error) string {
	if errors.Is(err, game.ErrInsufficientStamina) || errors.Is(err, game.ErrInsufficientCurrency) {
		return ui.Warn.Render(ui.IconWarn + " " + err.Error())
	}
	return ui.Bad.Render(ui.IconError + " " + err.Error())
}
