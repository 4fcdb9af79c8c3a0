package handler

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/himanshu-dandle/telco-customer-churn/internal/middleware"
	"github.com/himanshu-dandle/telco-customer-churn/internal/models"
	"github.com/himanshu-dandle/telco-customer-churn/internal/service"
)

// predictPayload is the wire form of models.ChurnRequest. Pointers let the
// validator tell a missing field from an explicit zero.
type predictPayload struct {
	TotalCharges   *float64     `json:"TotalCharges"   validate:"required"`
	MonthlyCharges *float64     `json:"MonthlyCharges" validate:"required"`
	Tenure         *wholeNumber `json:"tenure"         validate:"required"`
	Contract       *wholeNumber `json:"Contract"       validate:"required"`
	PaymentMethod  *wholeNumber `json:"PaymentMethod"  validate:"required"`
	OnlineSecurity *wholeNumber `json:"OnlineSecurity" validate:"required"`
}

// wholeNumber is an integer field that also accepts integral floats such
// as 12.0. Fractional values are rejected.
type wholeNumber int

func (n *wholeNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return errors.New("null is not a valid integer")
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return fmt.Errorf("%s is not a valid integer", b)
	}
	*n = wholeNumber(f)
	return nil
}

func (p predictPayload) request() models.ChurnRequest {
	return models.ChurnRequest{
		TotalCharges:   *p.TotalCharges,
		MonthlyCharges: *p.MonthlyCharges,
		Tenure:         int(*p.Tenure),
		Contract:       int(*p.Contract),
		PaymentMethod:  int(*p.PaymentMethod),
		OnlineSecurity: int(*p.OnlineSecurity),
	}
}

// PredictHandler wires HTTP → PredictionService.
type PredictHandler struct {
	svc      service.PredictionService
	validate *validator.Validate
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(svc service.PredictionService) *PredictHandler {
	v := validator.New()
	// Report fields by their JSON key so errors match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &PredictHandler{svc: svc, validate: v}
}

// Register mounts POST /predict behind the given middleware (the API key
// check in production).
func (h *PredictHandler) Register(r fiber.Router, guards ...fiber.Handler) {
	handlers := append(append([]fiber.Handler(nil), guards...), h.predict)
	r.Post("/predict", handlers...)
}

// predict handles POST /predict
func (h *PredictHandler) predict(c *fiber.Ctx) error {
	meta := service.RequestMeta{
		RequestID: middleware.RequestID(c),
		ClientIP:  c.IP(),
		Start:     c.Context().Time(),
	}

	req, err := h.decode(c.Body())
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	resp, err := h.svc.Predict(c.UserContext(), req, meta)
	if err != nil {
		if errors.Is(err, service.ErrModelNotLoaded) {
			return fiber.NewError(fiber.StatusInternalServerError, "Model is not loaded properly!")
		}
		log.Error().Err(err).
			Str("request_id", meta.RequestID).
			Str("client_ip", meta.ClientIP).
			Interface("input", req).
			Msg("[Prediction] prediction error")
		return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
	}

	return c.JSON(resp)
}

func (h *PredictHandler) decode(body []byte) (models.ChurnRequest, error) {
	if len(body) == 0 {
		return models.ChurnRequest{}, errors.New("request body is required")
	}

	var p predictPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.ChurnRequest{}, fmt.Errorf("invalid JSON body: %w", err)
	}

	if err := h.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
			return models.ChurnRequest{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
		}
		return models.ChurnRequest{}, err
	}
	return p.request(), nil
}
