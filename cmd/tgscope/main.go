package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pders01/tgscope/internal/archive"
	"github.com/pders01/tgscope/internal/browser"
	"github.com/pders01/tgscope/internal/client"
	"github.com/pders01/tgscope/internal/config"
	"github.com/pders01/tgscope/internal/debuglog"
	"github.com/pders01/tgscope/internal/importer"
	"github.com/pders01/tgscope/internal/langs"
	"github.com/pders01/tgscope/internal/server"
	"github.com/pders01/tgscope/internal/session"
	"github.com/pders01/tgscope/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	backendURL string
	logLevel   string
	quiet      bool
	serveAddr  string
	refresh    bool
)

var rootCmd = &cobra.Command{
	Use:           "tgscope",
	Short:         "Search archived Telegram channels across languages",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tgscope %s\n", Version)
		fmt.Println("Telegram archive search")
		fmt.Println("github.com/pders01/tgscope")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration",
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the archive over the search and translate API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var importCmd = &cobra.Command{
	Use:   "import [feed-url...]",
	Short: "Import channel feeds into the archive",
	RunE:  runImport,
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List archived channels",
	Args:  cobra.NoArgs,
	RunE:  runChannels,
}

var channelsRmCmd = &cobra.Command{
	Use:   "rm <channel-id>",
	Short: "Remove a channel and its messages from the archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runChannelsRm,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file")
	flags.StringVar(&backendURL, "backend", "", "Backend base URL (overrides config)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, off")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Skip startup banner")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	importCmd.Flags().BoolVar(&refresh, "refresh", false, "Re-import every archived channel")

	configCmd.AddCommand(configGenCmd)
	channelsCmd.AddCommand(channelsRmCmd)
	rootCmd.AddCommand(versionCmd, configCmd, serveCmd, importCmd, channelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if backendURL != "" {
		cfg.Backend.BaseURL = backendURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the TUI, so logs never go to stderr here.
	logPath := cfg.Log.Path
	if logPath == debuglog.StderrPath {
		logPath = ""
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), logPath); err != nil {
		return err
	}
	defer debuglog.Close()

	catalog, err := langs.Load(cfg.Search.LanguagesFile)
	if err != nil {
		return err
	}
	tui.ApplyColors(cfg.UI.Colors)

	if !quiet {
		tui.ShowBanner(Version)
	}

	backend := client.New(cfg.Backend.BaseURL,
		client.WithTimeout(cfg.Backend.Timeout),
		client.WithUserAgent(cfg.Backend.UserAgent),
	)
	orch := session.New(backend, backend, session.WithMaxVisible(cfg.Search.MaxVisiblePages))

	app := tui.NewApp(orch, catalog, browser.NewLauncher(cfg.UI.Opener), cfg)
	defer app.Close()

	debuglog.Infof("Starting TUI against %s", cfg.Backend.BaseURL)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// setupCLILogging routes logs to stderr for the non-interactive commands,
// which default to info rather than the TUI's off.
func setupCLILogging(cfg *config.Config) error {
	level := debuglog.LevelInfo
	if logLevel != "" {
		level = debuglog.ParseLogLevel(cfg.Log.Level)
	}
	return debuglog.Setup(level, debuglog.StderrPath)
}

func openArchive(cfg *config.Config) (*archive.Store, *archive.Index, error) {
	store, err := archive.NewStore(cfg.Archive.Path, cfg.Archive.Timeout)
	if err != nil {
		return nil, nil, err
	}
	index, err := archive.OpenIndex(store, cfg.Archive.Index)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, index, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupCLILogging(cfg); err != nil {
		return err
	}
	defer debuglog.Close()

	catalog, err := langs.Load(cfg.Search.LanguagesFile)
	if err != nil {
		return err
	}

	store, index, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	defer index.Close()

	var translator server.Translator
	if cfg.Server.TranslateURL != "" {
		translator = client.New(cfg.Server.TranslateURL,
			client.WithTimeout(cfg.Server.TranslateTimeout),
			client.WithUserAgent(cfg.Backend.UserAgent),
		)
	}

	gin.SetMode(gin.ReleaseMode)
	svc := server.NewService(index, translator, catalog, cfg.Server.ResultsPerPage, cfg.Server.PerLanguageLimit)
	srv := server.New(server.NewHandler(svc, catalog), debuglog.Logger())

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debuglog.Infof("Listening on %s", addr)
	return srv.Run(ctx, addr)
}

func runImport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !refresh {
		return fmt.Errorf("no feed URLs given; pass URLs or --refresh")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupCLILogging(cfg); err != nil {
		return err
	}
	defer debuglog.Close()

	store, index, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	defer index.Close()

	im := importer.New(store, index,
		importer.WithFetcher(importer.NewFetcher(cfg.Importer.HTTPTimeout, cfg.Importer.UserAgent)),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var results []*importer.Result
	var errs []error
	if refresh {
		results, err = im.RefreshAll(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	for _, u := range args {
		res, err := im.Import(ctx, u)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}

	printResults(cmd, results)
	if len(errs) > 0 {
		return fmt.Errorf("%d import(s) failed: %w", len(errs), errs[0])
	}
	return nil
}

func printResults(cmd *cobra.Command, results []*importer.Result) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tTITLE\tFETCHED\tADDED")
	for _, r := range results {
		added := fmt.Sprintf("%d", r.Added)
		if r.NotModified {
			added = "not modified"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Channel.ID, r.Channel.Title, r.Fetched, added)
	}
	w.Flush()
}

func runChannels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := archive.NewStore(cfg.Archive.Path, cfg.Archive.Timeout)
	if err != nil {
		return err
	}
	defer store.Close()

	channels, err := store.Channels()
	if err != nil {
		return err
	}
	total, err := store.MessageCount()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tTITLE\tLAST IMPORT")
	for _, ch := range channels {
		last := "never"
		if !ch.LastImported.IsZero() {
			last = ch.LastImported.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ch.ID, ch.Username, ch.Title, last)
	}
	w.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d channel(s), %d message(s)\n", len(channels), total)
	return nil
}

func runChannelsRm(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupCLILogging(cfg); err != nil {
		return err
	}
	defer debuglog.Close()

	store, index, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	defer index.Close()

	if err := importer.New(store, index).Remove(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}
