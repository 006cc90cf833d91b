package routes

import (
	"biblio-app/collocation"
	"biblio-app/config"
	"biblio-app/controllers"
	"biblio-app/middleware"
	"biblio-app/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Config     *config.Config
	Log        logrus.FieldLogger
	Service    *collocation.Service
	Hierarchy  *repositories.HierarchyRepository
	Placements *repositories.PlacementRepository
	Gatherer   prometheus.Gatherer
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	app.Use(middleware.RequestLogger(deps.Log))

	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	auth := middleware.NewAuthMiddleware(deps.Config.JWTSecret)
	SetupCollocationRoutes(app, deps, auth)
	SetupItemRoutes(app, deps, auth)
	SetupShelvingRoutes(app, deps, auth)
}

func SetupCollocationRoutes(app *fiber.App, deps Dependencies, auth fiber.Handler) {
	controller := controllers.NewCollocationController(deps.Service, deps.Placements, deps.Log)
	api := app.Group(deps.Config.MainRoutes+"/collocation", auth)
	api.Get("/units", controller.GetUnits)
	api.Get("/levels", controller.GetLevels)
	api.Get("/slots", controller.GetSlots)
	api.Get("/next-ordinal", controller.GetNextOrdinal)
	api.Get("/occupied", controller.GetOccupied)
	api.Get("/encode", controller.GetEncode)
	api.Post("/suggest", controller.Suggest)
	api.Post("/reorder", controller.Reorder)
}

func SetupItemRoutes(app *fiber.App, deps Dependencies, auth fiber.Handler) {
	controller := controllers.NewItemPlacementController(deps.Service, deps.Placements)
	api := app.Group(deps.Config.MainRoutes+"/items", auth)
	api.Get("/:id/placement", controller.GetPlacement)
	api.Put("/:id/placement", controller.UpdatePlacement)
	api.Delete("/:id/placement", controller.DeletePlacement)
	api.Delete("/:id", controller.DeleteItem)
	api.Post("/:id/deactivate", controller.DeactivateItem)
}

func SetupShelvingRoutes(app *fiber.App, deps Dependencies, auth fiber.Handler) {
	controller := controllers.NewShelvingController(deps.Hierarchy, deps.Log)
	api := app.Group(deps.Config.MainRoutes+"/shelving", auth)
	api.Post("/units", controller.CreateUnit)
	api.Post("/levels", controller.CreateLevel)
	api.Post("/import", controller.ImportFromExcel)
}
