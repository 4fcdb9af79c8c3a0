package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/himanshu-dandle/telco-customer-churn/internal/database"
	"github.com/himanshu-dandle/telco-customer-churn/internal/secrets"
	"github.com/himanshu-dandle/telco-customer-churn/internal/service"
)

// RootMessage is the fixed body of GET /.
const RootMessage = "Customer Churn Prediction API is running!"

type HealthHandler struct {
	svc     service.PredictionService
	apiKey  secrets.APIKey
	auditDB *mongo.Client
}

func NewHealthHandler(svc service.PredictionService, apiKey secrets.APIKey, auditDB *mongo.Client) *HealthHandler {
	return &HealthHandler{
		svc:     svc,
		apiKey:  apiKey,
		auditDB: auditDB,
	}
}

func (h *HealthHandler) Register(r fiber.Router) {
	r.Get("/", h.root)
	r.Get("/health", h.health)
}

// root answers regardless of model or key state.
func (h *HealthHandler) root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": RootMessage})
}

func (h *HealthHandler) health(c *fiber.Ctx) error {
	model := "not_loaded"
	if h.svc.ModelLoaded() {
		model = "loaded"
	}
	key := "not_configured"
	if h.apiKey.Configured() {
		key = "configured"
	}

	status := "ok"
	if model != "loaded" || key != "configured" {
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":  status,
		"model":   model,
		"api_key": key,
		"audit":   h.checkDB(c.UserContext()),
	})
}

func (h *HealthHandler) checkDB(ctx context.Context) string {
	if h.auditDB == nil {
		return "not_configured"
	}

	if err := database.Ping(ctx, h.auditDB, 2*time.Second); err != nil {
		return "error"
	}
	return "connected"
}
