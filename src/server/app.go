// Package server assembles the Fiber application from its services.
package server

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theleywin/talent-nest-network/src/connections"
	"github.com/theleywin/talent-nest-network/src/controllers"
	"github.com/theleywin/talent-nest-network/src/lib"
	"github.com/theleywin/talent-nest-network/src/middleware"
	"github.com/theleywin/talent-nest-network/src/notifications"
	"github.com/theleywin/talent-nest-network/src/routes"
	"github.com/theleywin/talent-nest-network/src/store"
	"github.com/theleywin/talent-nest-network/src/users"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Store         store.Store
	Verifier      middleware.TokenVerifier
	Connections   *connections.Service
	Notifications *notifications.Service
	Users         *users.Service
	API           lib.APIConfig
	AllowOrigins  []string
}

// NewApp builds the REST application. Every route under /api/v1 requires a
// bearer token.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "talentnest",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: lib.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(corsConfig(d.AllowOrigins)))
	app.Use(middleware.RequestLogger())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	protect := middleware.ProtectRoute(d.Verifier, d.Store)
	api := app.Group("/api/v1")

	routes.ConnectionRoutes(api, protect, controllers.NewConnectionController(d.Connections, d.API))
	routes.NotificationRoutes(api, protect, controllers.NewNotificationController(d.Notifications, d.API))
	routes.UserRoutes(api, protect, controllers.NewUserController(d.Users))

	return app
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = "*"
		return cfg
	}
	cfg.AllowOrigins = strings.Join(origins, ",")
	cfg.AllowCredentials = cfg.AllowOrigins != "*"
	return cfg
}
