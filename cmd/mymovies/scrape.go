package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"mymovies/pkg/auth"
	"mymovies/pkg/config"
	"mymovies/pkg/errors"
	"mymovies/pkg/library"
	"mymovies/pkg/logger"
	"mymovies/pkg/session"
	"mymovies/pkg/session/browser"
	"mymovies/pkg/session/static"
	"mymovies/pkg/ui"
	"mymovies/pkg/ui/tui"
)

var (
	// Scrape command flags
	mode         string
	outputPath   string
	maxPasses    int
	stablePasses int
	accountName  string
	username     string
	loginURL     string
	libraryURL   string
	headless     bool
	useStealth   bool
	printTitles  bool
	notify       bool
	useTUI       bool
)

// tuiOptions configures the --tui program. It draws on stderr so stdout
// keeps only the title listing.
var tuiOptions = func() []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithOutput(os.Stderr)}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		opts = append(opts, tea.WithInput(nil))
	}
	return opts
}

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Export the library to a CSV file",
	Long: `Sign in, open the library listing and collect titles over a fixed number
of passes, scrolling (browser mode) or paging (static mode) between them.

The collected titles are deduplicated, sorted and written atomically to the
output file, one title per row. Nothing is written when any step fails.

Exit status:
  0 success, 1 unexpected error, 2 configuration, 3 login, 4 navigation,
  5 collection, 6 writing output, 7 browser, 130 interrupted`,
	Example: `  # Export with stored credentials to movies.csv
  mymovies scrape

  # Pick an account and output file
  mymovies scrape --account me@example.com -o ~/library.csv

  # Stop once three passes in a row find nothing new
  mymovies scrape --stable-passes 3

  # Parse a saved copy of the library page, no login
  mymovies scrape --mode static --login-url "" --library-url ./my_movies.html

  # Follow the passes in a live terminal view
  mymovies scrape --tui

  # Watch the browser work
  mymovies scrape --headless=false --verbose`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	addScrapeFlags(scrapeCmd.Flags())

	// Also add these flags to root command so a bare 'mymovies' exports
	addScrapeFlags(rootCmd.Flags())
}

func addScrapeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&mode, "mode", config.ModeBrowser, "session mode (browser, static)")
	fs.StringVarP(&outputPath, "output", "o", "movies.csv", "CSV file to write")
	fs.IntVar(&maxPasses, "max-passes", library.DefaultMaxPasses, "number of collection passes")
	fs.IntVar(&stablePasses, "stable-passes", 0, "stop after this many passes in a row add no titles (0 disables)")
	fs.StringVarP(&accountName, "account", "a", "", "use specific stored account")
	fs.StringVar(&username, "username", "", "login username (password is read from the store, env or a prompt)")
	fs.StringVar(&loginURL, "login-url", "", "login page URL; empty skips login")
	fs.StringVar(&libraryURL, "library-url", "", "library listing URL, or a saved page in static mode")
	fs.BoolVar(&headless, "headless", true, "run the browser without a window")
	fs.BoolVar(&useStealth, "stealth", false, "hide common automation fingerprints from the site")
	fs.BoolVar(&printTitles, "print", false, "also print the titles to stdout")
	fs.BoolVar(&notify, "notify", false, "send a desktop notification when the export ends")
	fs.BoolVar(&useTUI, "tui", false, "show progress in an interactive terminal view (q stops the export)")
}

// commandFlags returns the flags the operator actually set, keyed the way
// config.MergeCommandLineFlags expects
func commandFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})

	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "mode", "output", "account", "username", "login-url", "library-url", "log-level", "log-format":
			flags[f.Name] = f.Value.String()
		case "max-passes", "stable-passes":
			if n, err := cmd.Flags().GetInt(f.Name); err == nil {
				flags[f.Name] = n
			}
		case "headless", "stealth", "print", "notify", "no-color":
			if b, err := cmd.Flags().GetBool(f.Name); err == nil {
				flags[f.Name] = b
			}
		}
	})

	if _, set := flags["log-level"]; !set {
		switch {
		case verbose:
			flags["log-level"] = "debug"
		case quiet:
			flags["log-level"] = "error"
		case useTUI:
			// Info lines would tear through the view
			flags["log-level"] = "warn"
		}
	}

	return flags
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, "load config", err, "")
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, "init logging", err, "")
	}
	logger.WithField("version", version).Debug("mymovies starting")

	_, err = export(cmd.Context(), cfg, cmd.OutOrStdout())
	return err
}

// export runs one library export with cfg and reports the outcome. Titles
// are echoed to stdout when the config asks for it.
func export(ctx context.Context, cfg *config.Config, stdout io.Writer) (titles []string, err error) {
	log := logger.GetLogger()

	logger.LogComponentStart("export", map[string]interface{}{
		"mode":        cfg.Scrape.Mode,
		"library_url": cfg.Site.LibraryURL,
		"output":      cfg.Output.Path,
		"max_passes":  cfg.Scrape.MaxPasses,
	})
	defer func() {
		reason := "completed"
		if err != nil {
			reason = string(errors.TypeOf(err))
		}
		logger.LogComponentStop("export", reason)
		notifyOutcome(cfg, len(titles), err)
	}()

	cred, err := resolveCredential(cfg, log)
	if err != nil {
		return nil, err
	}

	sess, err := openSession(cfg, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close session")
		}
	}()

	scraper := library.New(sess, library.Options{
		MaxPasses:    cfg.Scrape.MaxPasses,
		StablePasses: cfg.Scrape.StablePasses,
	}, log)
	run := func(ctx context.Context) ([]string, error) {
		return scraper.Export(ctx, cred, cfg.Site.LibraryURL, cfg.Output.Path)
	}

	var tracker *ui.PassTracker
	if useTUI && !ui.IsQuiet() {
		view := tui.New(cfg.Scrape.MaxPasses, tuiOptions()...)
		scraper.SetObserver(view)
		titles, err = runWithTUI(ctx, view, func(ctx context.Context) ([]string, error) {
			view.LogInfo("Library %s", cfg.Site.LibraryURL)
			return run(ctx)
		})
	} else {
		tracker = ui.NewPassTracker()
		scraper.SetObserver(tracker)
		ui.PrintInfo("Library", cfg.Site.LibraryURL)
		titles, err = run(ctx)
	}

	stats := scraper.Stats()
	logger.LogMetrics("export", map[string]interface{}{
		"passes":      stats.Passes,
		"seen":        stats.Seen,
		"unique":      stats.Unique,
		"duration_ms": stats.Duration.Milliseconds(),
		"state":       scraper.State().String(),
	})
	if err != nil {
		return nil, err
	}

	if tracker != nil {
		tracker.PrintSummary()
	}
	ui.PrintSuccess(fmt.Sprintf("%d titles written to %s", len(titles), cfg.Output.Path))

	if cfg.Output.PrintTitles {
		for _, t := range titles {
			fmt.Fprintln(stdout, t)
		}
	}
	return titles, nil
}

// runWithTUI runs the export alongside view. Quitting the view cancels the
// export; the export ending closes the view.
func runWithTUI(ctx context.Context, view *tui.TUI, run func(context.Context) ([]string, error)) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		titles []string
		err    error
	}

	exportDone := make(chan result, 1)
	go func() {
		titles, err := run(ctx)
		view.Finish(err)
		exportDone <- result{titles, err}
	}()

	viewDone := make(chan error, 1)
	go func() {
		viewDone <- view.Start()
	}()

	// Wait for either to finish
	select {
	case res := <-exportDone:
		<-viewDone
		return res.titles, res.err
	case err := <-viewDone:
		if err != nil {
			logger.WithError(err).Warn("Progress view failed")
		}
		if view.Stopped() {
			cancel()
		}
		res := <-exportDone
		return res.titles, res.err
	}
}

// resolveCredential finds the login for the run. No login URL means no
// login, so no credential is needed.
func resolveCredential(cfg *config.Config, log logger.Logger) (auth.Credential, error) {
	if cfg.Site.LoginURL == "" {
		return auth.Credential{}, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return auth.Credential{}, errors.Wrap(errors.ErrorTypeConfig, "credentials", err, "failed to initialize credential manager")
	}

	src := auth.Source{
		Username: cfg.Credentials.Username,
		Password: cfg.Credentials.Password,
		Account:  cfg.Credentials.Account,
	}
	if prompter := auth.NewTerminalPrompter(); prompter.IsInteractive() {
		src.Prompt = prompter.Prompt
	}

	cred, origin, err := manager.Resolve(src)
	if err != nil {
		return auth.Credential{}, errors.Wrap(errors.ErrorTypeConfig, "credentials", err,
			"no usable login; run 'mymovies auth login' or set MYMOVIES_USERNAME and MYMOVIES_PASSWORD")
	}

	log.InfoWithFields("Using credential", map[string]interface{}{
		"username": cred.Username,
		"source":   origin,
	})
	return *cred, nil
}

func openSession(cfg *config.Config, log logger.Logger) (session.Session, error) {
	switch cfg.Scrape.Mode {
	case config.ModeStatic:
		s, err := static.New(cfg, log)
		if err != nil {
			return nil, errors.Wrap(errors.ErrorTypeConfig, "open session", err, "")
		}
		return s, nil
	default:
		s, err := browser.New(cfg, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func notifyOutcome(cfg *config.Config, count int, err error) {
	if !cfg.Notifications.Enabled {
		return
	}
	notifier := ui.NewNotifier()

	switch {
	case err != nil && cfg.Notifications.OnError:
		notifier.SendError("Library export failed", err.Error())
	case err == nil && cfg.Notifications.OnComplete:
		notifier.SendSuccess("Library export complete", fmt.Sprintf("%d titles written to %s", count, cfg.Output.Path))
	}
}
