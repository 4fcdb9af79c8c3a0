package handler

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/himanshu-dandle/telco-customer-churn/internal/metrics"
	"github.com/himanshu-dandle/telco-customer-churn/internal/middleware"
	"github.com/himanshu-dandle/telco-customer-churn/internal/secrets"
	"github.com/himanshu-dandle/telco-customer-churn/internal/service"
)

// Dependencies are the long-lived objects the routes close over.
// Metrics and AuditDB may be nil.
type Dependencies struct {
	Predictions service.PredictionService
	APIKey      secrets.APIKey
	Metrics     *metrics.Metrics
	AuditDB     *mongo.Client
}

// ServerOptions tune the Fiber app.
type ServerOptions struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewApp builds the Fiber app with the standard middleware chain and every
// route mounted.
func NewApp(opts ServerOptions, deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "churn-api",
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler:          ErrorHandler,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})

	app.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: middleware.RequestIDKey,
	}))
	app.Use(middleware.Logging())
	app.Use(middleware.Recover())

	RegisterRoutes(app, deps)
	return app
}

// RegisterRoutes mounts the public routes on app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	NewHealthHandler(deps.Predictions, deps.APIKey, deps.AuditDB).Register(app)
	NewPredictHandler(deps.Predictions).Register(app, middleware.APIKey(deps.APIKey, deps.Metrics))

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
}

// ErrorHandler renders every error as {"detail": "..."}. Only *fiber.Error
// messages reach the client; anything else becomes a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{"detail": msg})
}
