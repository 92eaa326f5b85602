package http

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	predictionSvc *service.PredictionService
	validate      *validator.Validate
}

// NewHandler creates a new handler
func NewHandler(predictionSvc *service.PredictionService) *Handler {
	return &Handler{
		predictionSvc: predictionSvc,
		validate:      validator.New(),
	}
}

// HealthCheck returns service health status; 503 while no bundle is loaded
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := h.predictionSvc.Health(c.UserContext())
	code := fiber.StatusOK
	if !status.ModelLoaded {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(status)
}

// Predict scores a single trip
func (h *Handler) Predict(c *fiber.Ctx) error {
	var trip domain.RawTrip
	if err := c.BodyParser(&trip); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.predictionSvc.Predict(c.UserContext(), trip)
	if err != nil {
		return err
	}

	return c.JSON(domain.PredictionResponse{
		Success:          true,
		PredictionResult: result,
	})
}

// PredictBatch scores many trips in one model call
func (h *Handler) PredictBatch(c *fiber.Ctx) error {
	var req domain.BatchPredictionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "trips must hold between 1 and 1000 entries")
	}

	results, err := h.predictionSvc.PredictBatch(c.UserContext(), req.Trips)
	if err != nil {
		return err
	}

	return c.JSON(domain.BatchPredictionResponse{
		Success:     true,
		Predictions: results,
		Count:       len(results),
	})
}

// Explain returns the prediction with every model input before and after scaling
func (h *Handler) Explain(c *fiber.Ctx) error {
	var trip domain.RawTrip
	if err := c.BodyParser(&trip); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	explanation, err := h.predictionSvc.Explain(c.UserContext(), trip)
	if err != nil {
		return err
	}
	return c.JSON(explanation)
}

// GetModel describes the loaded artifact bundle
func (h *Handler) GetModel(c *fiber.Ctx) error {
	info, err := h.predictionSvc.Info()
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    info,
	})
}

// GetConsistency re-runs the artifact consistency checks
func (h *Handler) GetConsistency(c *fiber.Ctx) error {
	report, err := h.predictionSvc.Consistency()
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  report.OK(),
		"data":     report,
		"errors":   report.Errors(),
		"warnings": report.Warnings(),
	})
}

// StatusFor maps a pipeline error kind to an HTTP status
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrMalformedInput):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrArtifactLoad):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every failed request as {success:false, detail}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	detail := err.Error()

	var fe *fiber.Error
	if errors.As(err, &fe) {
		detail = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(domain.ErrorResponse{
		Success: false,
		Detail:  detail,
	})
}
