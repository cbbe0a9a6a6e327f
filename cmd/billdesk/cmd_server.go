package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/billdesk/app/routes"
	"github.com/shashiranjanraj/billdesk/config"
	"github.com/shashiranjanraj/billdesk/internal/bootstrap"
	"github.com/shashiranjanraj/billdesk/internal/kernel"
	"github.com/shashiranjanraj/billdesk/internal/server"
	"github.com/shashiranjanraj/billdesk/pkg/logger"
)

// globalRateLimit caps requests per client IP per minute across the API.
const globalRateLimit = 600

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("starting",
		"env", config.AppEnv(),
		"store", app.Store.Driver(),
		"cache", app.Cache.Driver(),
		"pricing", config.PricingSource(),
	)

	handler := kernel.Handler(app.Services, kernel.Options{
		CORSOrigins: config.CORSOrigins(),
		RateLimit:   globalRateLimit,
	})
	return server.Start(ctx, ":"+config.AppPort(), handler)
}

// billdesk route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List every registered route",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Registration only captures the controllers; nothing is called.
		r := kernel.NewRouter(routes.Services{}, kernel.Options{})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range r.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
