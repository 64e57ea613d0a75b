package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"

	"github.com/wayfarer/wayfarer/accounts"
	"github.com/wayfarer/wayfarer/api"
	"github.com/wayfarer/wayfarer/chatbot"
	"github.com/wayfarer/wayfarer/comments"
	"github.com/wayfarer/wayfarer/internal/config"
	"github.com/wayfarer/wayfarer/internal/metrics"
	"github.com/wayfarer/wayfarer/internal/util"
	"github.com/wayfarer/wayfarer/recommend"
	"github.com/wayfarer/wayfarer/session"
	bboltstorage "github.com/wayfarer/wayfarer/storage/bbolt"
	"github.com/wayfarer/wayfarer/web"
)

const databaseFile = "wayfarer.db"

type serverOptions struct {
	port     int
	dataDir  string
	tlsCert  string
	tlsKey   string
	artifact string
}

// apply copies explicitly set flags over the loaded configuration.
func (o *serverOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = o.port
	}
	if flags.Changed("data-dir") {
		cfg.Storage.DataDir = o.dataDir
	}
	if flags.Changed("tls-cert") {
		cfg.Server.TLSCert = o.tlsCert
	}
	if flags.Changed("tls-key") {
		cfg.Server.TLSKey = o.tlsKey
	}
	if flags.Changed("artifact") {
		cfg.Recommend.ArtifactPath = o.artifact
	}
}

func newServerCmd(root *rootOptions) *cobra.Command {
	opts := &serverOptions{}
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := cfg.Logging.NewLogger(os.Stderr)
			slog.SetDefault(logger)

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			printBanner(cmd.OutOrStdout())
			logger.Info("starting server",
				"addr", cfg.Server.Addr(),
				"tls", cfg.Server.TLSEnabled(),
				"data_dir", cfg.Storage.DataDir,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg.Server, a.handler, logger)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func (o *serverOptions) addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVarP(&o.port, "port", "p", 8080, "Port to listen on")
	flags.StringVar(&o.dataDir, "data-dir", "./data", "Directory for persistent data")
	flags.StringVar(&o.tlsCert, "tls-cert", "", "Path to TLS certificate file")
	flags.StringVar(&o.tlsKey, "tls-key", "", "Path to TLS key file")
	flags.StringVar(&o.artifact, "artifact", "", "Path to the similarity artifact (default <data-dir>/similarity.json)")
}

// app is the wired service and the resources it owns.
type app struct {
	handler  http.Handler
	repo     *bboltstorage.Store
	sessions *session.PersistentStore
	webhook  *api.AlertWebhook
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	repo, err := bboltstorage.NewRepositoryFromFile(
		filepath.Join(cfg.Storage.DataDir, databaseFile),
		&bbolt.Options{Timeout: time.Second},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a := &app{repo: repo}

	params, err := util.Argon2idProfile(cfg.Accounts.HashProfile)
	if err != nil {
		a.Close()
		return nil, err
	}
	store, err := accounts.New(repo, accounts.WithHashParams(params))
	if err != nil {
		a.Close()
		return nil, err
	}

	var sessions session.Store
	if cfg.Session.Persistent {
		a.sessions = session.NewPersistentStore(repo, logger)
		sessions = a.sessions
	} else {
		sessions = session.NewMemoryStore()
	}

	handle := recommend.Open(cfg.Artifact(), logger)
	if idx, err := handle.Index(); err == nil {
		metrics.SetIndexLabels(idx.Len())
	}

	bot := chatbot.New()
	if shadowed := bot.Shadowed(); len(shadowed) > 0 {
		logger.Warn("chatbot rules can never match", "rules", shadowed)
	}

	pages, err := web.Handler()
	if err != nil {
		a.Close()
		return nil, err
	}

	apiOpts := []api.Option{
		api.WithLogger(logger),
		api.WithPages(pages),
		api.WithDefaultTopN(cfg.Recommend.DefaultTopN),
		api.WithAuthRateLimit(cfg.RateLimit.AuthPerMinute),
	}
	if cfg.Alerts.WebhookURL != "" {
		a.webhook = api.NewAlertWebhook(cfg.Alerts.WebhookURL, cfg.Alerts.WebhookAuthHeader, logger)
		apiOpts = append(apiOpts, api.WithAlertFunc(a.webhook.Notify))
	}

	a.handler = api.New(api.Deps{
		Accounts:  store,
		Sessions:  session.NewBinder(sessions, session.WithLifetime(cfg.Session.Lifetime)),
		Recommend: handle,
		Chatbot:   bot,
		Comments:  comments.NewBoard(repo),
	}, apiOpts...).Router()
	return a, nil
}

// Close releases the app's resources in reverse order of acquisition.
func (a *app) Close() error {
	if a.webhook != nil {
		a.webhook.Close()
	}
	if a.sessions != nil {
		a.sessions.Close()
	}
	return a.repo.Close()
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func serve(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	if cfg.TLSEnabled() {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	done := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSEnabled() {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- fmt.Errorf("server failed: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return <-done
	case err := <-done:
		return err
	}
}
