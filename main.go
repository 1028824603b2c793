package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/damso-app/damso/internal/config"
	"github.com/damso-app/damso/internal/directory"
	"github.com/damso-app/damso/internal/logging"
	"github.com/damso-app/damso/internal/realtime"
	"github.com/damso-app/damso/internal/session"
	"github.com/damso-app/damso/internal/store"
	"github.com/damso-app/damso/internal/ui"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:     "damso",
	Short:   "Terminal chat client",
	Version: version,
	RunE:    runChat,
}

var (
	flagConfigPath string
	flagServerURL  string
	flagSocketURL  string
	flagLink       string
	flagDebug      bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfigPath, "config", config.DefaultPath(), "config file path")
	flags.StringVar(&flagServerURL, "server-url", "", "room directory base URL (overrides config and DAMSO_SERVER_URL)")
	flags.StringVar(&flagSocketURL, "socket-url", "", "realtime transport URL (overrides config and DAMSO_SOCKET_URL)")
	flags.StringVar(&flagLink, "link", "", "chat deep link to open on start")
	flags.BoolVar(&flagDebug, "debug", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return err
	}
	if flagServerURL != "" {
		cfg.ServerURL = flagServerURL
	}
	if flagSocketURL != "" {
		cfg.SocketURL = flagSocketURL
	}
	if flagDebug {
		cfg.Debug = true
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("prepare data dir: %w", err)
	}
	logging.Setup(cfg.LogPath(), cfg.Debug)

	var cache *store.Store
	if cache, err = store.Open(cfg.HistoryPath()); err != nil {
		log.Warn().Err(err).Msg("history cache unavailable, running without it")
		cache = nil
	} else {
		defer cache.Close()
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	rt, err := realtime.Dial(dialCtx, cfg.SocketURL)
	cancel()
	if err != nil {
		return fmt.Errorf("connect realtime transport: %w", err)
	}
	defer rt.Close()

	app := &ui.App{
		Cfg:      cfg,
		Ctrl:     session.New(),
		Dir:      directory.NewClient(cfg.ServerURL),
		RT:       rt,
		Store:    cache,
		DeepLink: flagLink,
	}

	p := tea.NewProgram(ui.NewRoomsModel(app), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	// Best-effort presence release before teardown; the directory keeps
	// counting us as present in the room otherwise.
	if sess := app.Ctrl.Session(); !sess.Zero() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := app.Dir.ReleasePresence(ctx, sess.CurrentUser, sess.RoomID); err != nil {
			log.Warn().Err(err).Str("room", sess.RoomID).Msg("release presence on exit")
		}
	}

	return nil
}
