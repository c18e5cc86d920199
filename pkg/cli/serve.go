package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stevedore/pkg/cli/config"
	controller "github.com/m-mizutani/stevedore/pkg/controller/http"
	"github.com/m-mizutani/stevedore/pkg/infra/catalog"
	"github.com/m-mizutani/stevedore/pkg/infra/cmdexec"
	"github.com/m-mizutani/stevedore/pkg/infra/compose"
	"github.com/m-mizutani/stevedore/pkg/infra/gitsync"
	"github.com/m-mizutani/stevedore/pkg/infra/notify"
	"github.com/m-mizutani/stevedore/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg  config.Server
		webhookCfg config.Webhook
		deployCfg  config.Deploy
		sentryCfg  config.Sentry
		notifyCfg  config.Notify
	)

	flags := serverCfg.Flags()
	flags = append(flags, webhookCfg.Flags()...)
	flags = append(flags, deployCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the redeploy agent",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := deployCfg.LoadFile(); err != nil {
				return err
			}
			if err := sentryCfg.Configure(); err != nil {
				return err
			}
			defer sentry.Flush(2 * time.Second)

			logger.Info("starting stevedore agent",
				slog.String("addr", serverCfg.Addr),
				slog.String("repos_root", deployCfg.Root),
			)

			// Infrastructure
			runner := cmdexec.New()
			cat := catalog.New(deployCfg.Root, runner,
				catalog.WithExcludes(deployCfg.Excludes...),
			)
			syncer := gitsync.New(runner, gitsync.WithTimeout(deployCfg.SyncTimeout))
			workload := compose.New(runner,
				compose.WithBuildTimeout(deployCfg.BuildTimeout),
				compose.WithSettleDelay(deployCfg.SettleDelay),
			)

			if !workload.IsAvailable(ctx) {
				logger.Warn("container engine unavailable at startup; redeploys will fail until it recovers")
			}

			// Use case
			var ucOpts []usecase.Option
			if notifyCfg.SlackWebhookURL != "" {
				ucOpts = append(ucOpts, usecase.WithNotifier(notify.NewSlack(notifyCfg.SlackWebhookURL)))
			}
			deployUC := usecase.NewDeploy(cat, syncer, workload, ucOpts...)

			// HTTP server
			server, err := controller.NewServer(
				ctx,
				deployUC,
				cat,
				workload,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(webhookCfg.Secret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("server shutdown complete")
			return nil
		},
	}
}
