package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/chat"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/config"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/selection"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/session"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagServer   string
	flagInterval int
)

var rootCmd = &cobra.Command{
	Use:   "newspulse",
	Short: "TUI news dashboard with trends and an assistant",
	Long:  "newspulse tracks news categories you care about: a live article feed, trend charts per category, and a chat assistant grounded in your selection.",
	RunE:  runDashboard,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&flagServer, "server", "", "override the server URL")
	rootCmd.Flags().IntVar(&flagInterval, "interval", 0, "trend bucket width in minutes (15, 30, 60, 180, 360 or 10080)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(categoriesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newspulse %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, logFile, err := openLogger()
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logFile.Close()

	db, err := session.Open(config.SessionPath())
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer db.Close()

	if db.Token() == "" {
		return fmt.Errorf("not logged in: run `newspulse login` first")
	}

	client := api.New(cfg.ServerURL, db.Token)

	return tui.Run(tui.RunOpts{
		Cfg:       cfg,
		Client:    client,
		DB:        db,
		Selection: selection.New(client, log),
		Chat:      chat.New(client, db, log),
		Log:       log,
	})
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if flagInterval != 0 {
		if !slices.Contains(config.Intervals, flagInterval) {
			return nil, fmt.Errorf("invalid --interval %d: must be one of %v", flagInterval, config.Intervals)
		}
		cfg.IntervalMinutes = flagInterval
	}
	return cfg, nil
}

// openLogger writes structured logs to a file; the terminal belongs to the
// dashboard.
func openLogger() (*slog.Logger, *os.File, error) {
	path := config.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewTextHandler(f, nil)), f, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
