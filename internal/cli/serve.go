package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"strava-filter/internal/auth"
	"strava-filter/internal/config"
	"strava-filter/internal/scheduler"
	"strava-filter/internal/server"
	"strava-filter/internal/service"
	"strava-filter/internal/store"
	"strava-filter/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server, queue worker and retention scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, cmd.OutOrStdout())
			if errors.Is(err, errConfigCreated) {
				return nil
			}
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  cfg.RedirectURL(),
	})

	clients := service.NewStravaClients(oauthCfg, st)
	w := &worker.Worker{
		Store:     st,
		Processor: service.NewActivityService(clients.ForUser, st),
	}

	sched := scheduler.New(st, cfg.Retention())
	if err := sched.Schedule(cfg.Worker.RetentionSchedule); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.New(server.Options{
			Store:         st,
			OAuth:         oauthCfg,
			VerifyToken:   cfg.Strava.VerificationToken,
			WebhookSecret: cfg.Strava.WebhookSecret,
			Defaults: store.UserDefaults{
				Thresholds:      cfg.Thresholds(),
				TitleGeneration: cfg.Filter.TitleGeneration,
			},
			SessionKey:    []byte(cfg.Server.SessionSecret),
			SecureCookies: cfg.SecureCookies(),
			RateLimits:    clients,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("webhook", cfg.WebhookURL()).
			Str("version", Version).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := w.Run(gctx, cfg.PollInterval())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
