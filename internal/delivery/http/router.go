package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/smartcity/tripduration/internal/service"
)

// SetupRoutes configures all HTTP routes. metrics may be nil.
func SetupRoutes(app *fiber.App, predictionSvc *service.PredictionService, metrics nethttp.Handler) {
	handler := NewHandler(predictionSvc)

	// Health check
	app.Get("/health", handler.HealthCheck)

	if metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics))
	}

	// Form endpoint kept at the root for the web client
	app.Post("/predict", handler.Predict)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		api.Post("/predict", handler.Predict)
		api.Post("/predict/batch", handler.PredictBatch)
		api.Post("/predict/explain", handler.Explain)

		// Artifact introspection
		api.Get("/model", handler.GetModel)
		api.Get("/consistency", handler.GetConsistency)
	}
}
