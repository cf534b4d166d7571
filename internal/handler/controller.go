package handler

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"keyword-radar/internal/service"
	"keyword-radar/pkg/logger"
	"keyword-radar/pkg/opportunity"
)

type Controller struct {
	analyzer service.AnalysisService
	log      *logger.Logger
}

type ControllerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// BodyLimit caps request bodies in bytes; candidate payloads can be large
	BodyLimit int
}

type StatusResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Metrics   service.Status `json:"metrics"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type AnalyzeRequest struct {
	Keyword string `json:"keyword"`
}

type RankRequest struct {
	Keyword    string          `json:"keyword"`
	Candidates json.RawMessage `json:"candidates"`
	Limit      int             `json:"limit"`
}

func NewController(analyzer service.AnalysisService) *Controller {
	return &Controller{
		analyzer: analyzer,
		log:      logger.WithComponent("http"),
	}
}

// NewApp builds the fiber app with every route registered
func NewApp(controller *Controller, config ControllerConfig) *fiber.App {
	if config.BodyLimit <= 0 {
		config.BodyLimit = 8 * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:               "keyword-radar",
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		BodyLimit:             config.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          controller.handleError,
	})

	app.Use(recover.New())
	controller.Register(app)
	return app
}

func (ctl *Controller) Register(app *fiber.App) {
	app.Get("/health", ctl.Health)

	v1 := app.Group("/api/v1")
	v1.Post("/analyze", ctl.Analyze)
	v1.Post("/rank", ctl.Rank)
}

func (ctl *Controller) Analyze(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	analysis, err := ctl.analyzer.Analyze(c.UserContext(), req.Keyword)
	if err != nil {
		return err
	}
	return c.JSON(analysis)
}

func (ctl *Controller) Rank(c *fiber.Ctx) error {
	var req RankRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Limit < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "limit cannot be negative")
	}

	result, err := ctl.analyzer.Rank(req.Keyword, req.Candidates, req.Limit)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (ctl *Controller) Health(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Metrics:   ctl.analyzer.Status(),
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, service.ErrEmptyKeyword),
		errors.Is(err, opportunity.ErrEmptySeed),
		errors.Is(err, opportunity.ErrMalformedCandidates):
		return fiber.StatusBadRequest
	case errors.Is(err, opportunity.ErrSeedNotFound):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrAnalysisFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func (ctl *Controller) handleError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	message := err.Error()

	if code >= fiber.StatusInternalServerError {
		ctl.log.WithError(err).WithFields(map[string]interface{}{
			"path":   c.Path(),
			"status": code,
		}).Error("Request failed")
	}
	if code == fiber.StatusInternalServerError {
		message = "internal server error"
	}

	return c.Status(code).JSON(ErrorResponse{Error: message})
}
