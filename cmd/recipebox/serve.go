package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recipebox/internal/auth"
	"recipebox/internal/database"
	"recipebox/internal/linkmeta"
	"recipebox/internal/metrics"
	"recipebox/internal/recipe"
	"recipebox/internal/shopping"
	"recipebox/internal/user"
	"recipebox/internal/web"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if err := cfg.RequireSignIn(); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	users := user.NewRepository(db.SQL)
	links := linkmeta.NewFetcher(cfg.LinkFetchTimeout)
	recipeRepo := recipe.NewRepository(db.SQL)
	lists := shopping.NewRepository(db.SQL)
	list := shopping.NewService(lists, recipeRepo, logger.Named("shopping"))
	recipes := recipe.NewService(recipeRepo, links, list, lists, logger.Named("recipe"))

	srv := web.NewServer(web.Deps{
		Recipes:  recipes,
		Shopping: list,
		Users:    users,
		Links:    links,
		Provider: auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
		Sessions: auth.NewSessions(cfg.SessionSecret, cfg.SecureCookies),
		Health:   metrics.NewCollector(db, cfg.DatabasePath),
		Logger:   logger.Named("http"),
	})
	httpServer := srv.NewHTTPServer(net.JoinHostPort("", cfg.Port))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr), zap.String("app_url", cfg.AppURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
