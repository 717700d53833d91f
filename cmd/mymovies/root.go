package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"mymovies/pkg/errors"
	"mymovies/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFormat  string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command; without a subcommand it runs an export
var rootCmd = &cobra.Command{
	Use:   "mymovies",
	Short: "Export the movie titles in your VOD library to CSV",
	Long: `mymovies signs in to your video-on-demand account, scrolls through the
"My Movies" library and writes every title it finds to a CSV file, one title
per row, sorted and without duplicates.

Two session modes are available:
  - browser: drives headless Chrome, for libraries rendered by scripts
  - static:  plain HTTP with a cookie jar, or a saved HTML page on disk

Credentials come from flags, MYMOVIES_USERNAME/MYMOVIES_PASSWORD, the
credential store ('mymovies auth login') or an interactive prompt.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetQuiet(quiet)
		ui.SetNoColor(noColor)

		// Don't show logo for certain commands
		switch cmd.Name() {
		case "version", "help", "completion", "show":
		default:
			ui.PrintLogo()
		}
	},
	RunE: runScrape,
}

// Execute runs the command line and returns the process exit status.
// SIGINT and SIGTERM cancel the run in progress.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("Error", err)
		return errors.ExitCode(err)
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.mymovies.yaml or $HOME/.config/mymovies/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and the title listing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every pass and request (same as --log-level debug)")

	rootCmd.SetVersionTemplate(`mymovies {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Wrap(errors.ErrorTypeConfig, "parse flags", err, "")
	})

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
