package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/octobees/leadscan/internal/handler"
	middlewarepkg "github.com/octobees/leadscan/internal/middleware"
	"github.com/octobees/leadscan/internal/router"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		e := echo.New()
		e.HideBanner = true
		e.HidePort = true

		e.Use(middlewarepkg.RequestID())
		e.Use(middlewarepkg.Metrics())
		e.Use(middlewarepkg.Logging())
		e.Use(echoMiddleware.Recover())

		router.Register(e, cfg, env.JWT, router.Handlers{
			Health: handler.NewHealthHandler(env.HealthChecks()),
			Auth:   handler.NewAuthHandler(env.Auth),
			Users:  handler.NewUserAdminHandler(env.UserAdmin),
			Leads:  handler.NewLeadsHandler(env.Leads, env.Processor, env.Enrichment),
			Admin:  handler.NewAdminHandler(env.Leads, env.Processor, env.Enrichment, env.Dispatcher),
			Enrich: handler.NewEnrichHandler(env.Enrichment),
		})

		port := servePort
		if port == "" {
			port = cfg.Port
		}

		serverErr := make(chan error, 1)
		go func() {
			zap.L().Info("starting server", zap.String("port", port))
			serverErr <- e.Start(":" + port)
		}()

		select {
		case <-ctx.Done():
			zap.L().Info("shutdown signal received")
		case err := <-serverErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "serve")
			}
			return nil
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "graceful shutdown")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "HTTP port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}
