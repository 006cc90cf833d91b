package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"biblio-app/collocation"
	"biblio-app/config"
	"biblio-app/metrics"
	"biblio-app/repositories"
	"biblio-app/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rt.openMigrated()
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			hierarchy := repositories.NewHierarchyRepository(db)
			placements := repositories.NewPlacementRepository(db)
			svc := collocation.NewService(hierarchy, placements, repositories.NewGenreRepository(db),
				collocation.WithLogger(rt.log),
				collocation.WithMetrics(metrics.NewCollocation(registry)),
				collocation.WithClaimRetries(rt.cfg.ClaimRetries),
			)

			app := fiber.New(fiber.Config{DisableStartupMessage: true})
			config.SetupCORS(app, rt.cfg)
			routes.SetupRoutes(app, routes.Dependencies{
				Config:     rt.cfg,
				Log:        rt.log,
				Service:    svc,
				Hierarchy:  hierarchy,
				Placements: placements,
				Gatherer:   registry,
			})

			go func() {
				stop := make(chan os.Signal, 1)
				signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
				<-stop
				rt.log.Info("shutting down")
				_ = app.Shutdown()
			}()

			rt.log.WithField("port", rt.cfg.AppPort).Info("server listening")
			return app.Listen(":" + rt.cfg.AppPort)
		},
	}
}
