package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanshu-dandle/telco-customer-churn/internal/metrics"
	"github.com/himanshu-dandle/telco-customer-churn/internal/models"
	"github.com/himanshu-dandle/telco-customer-churn/internal/secrets"
	"github.com/himanshu-dandle/telco-customer-churn/internal/service"
)

const (
	fixtureModel = "../../testdata/churn_model.json"
	testKey      = "s3cret-key"
	sampleBody   = `{"TotalCharges":1000.0,"MonthlyCharges":50.0,"tenure":12,"Contract":0,"PaymentMethod":1,"OnlineSecurity":0}`
)

type countingPredictor struct {
	p     float64
	err   error
	calls int
}

func (c *countingPredictor) Predict(context.Context, []float64) (float64, error) {
	c.calls++
	return c.p, c.err
}

func (c *countingPredictor) Name() string { return "counting" }

type panicService struct{}

func (panicService) Predict(context.Context, models.ChurnRequest, service.RequestMeta) (models.Prediction, error) {
	panic("boom")
}

func (panicService) ModelLoaded() bool { return true }

func newApp(t *testing.T, model service.ModelState, key secrets.APIKey) *fiber.App {
	t.Helper()
	m := metrics.New()
	return NewApp(ServerOptions{}, Dependencies{
		Predictions: service.NewPredictionService(model, nil, m),
		APIKey:      key,
		Metrics:     m,
	})
}

func post(t *testing.T, app *fiber.App, key *string, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != nil {
		req.Header.Set("x-api-key", *key)
	}
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func ptr(s string) *string { return &s }

func TestPredictHappyPath(t *testing.T) {
	app := newApp(t, service.LoadModel(fixtureModel), secrets.NewAPIKey(testKey))

	status, body := post(t, app, ptr(testKey), sampleBody)
	require.Equal(t, fiber.StatusOK, status, body)

	assert.Equal(t, float64(1), body["churn_prediction"])
	assert.Equal(t, 0.5866, body["churn_probability"])
	rt, ok := body["response_time"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, rt, 0.0)
	assert.Len(t, body, 3)
}

func TestPredictAuth(t *testing.T) {
	tests := []struct {
		name       string
		key        secrets.APIKey
		header     *string
		wantStatus int
		wantDetail string
	}{
		{name: "missing header", key: secrets.NewAPIKey(testKey), wantStatus: 403, wantDetail: "Invalid API Key"},
		{name: "wrong key", key: secrets.NewAPIKey(testKey), header: ptr("wrong"), wantStatus: 403, wantDetail: "Invalid API Key"},
		{name: "empty key", key: secrets.NewAPIKey(testKey), header: ptr(""), wantStatus: 403, wantDetail: "Invalid API Key"},
		{name: "key not configured", key: secrets.APIKey{}, header: ptr(testKey), wantStatus: 500, wantDetail: "Server configuration error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &countingPredictor{p: 0.9}
			app := newApp(t, service.Loaded(model), tt.key)

			status, body := post(t, app, tt.header, sampleBody)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantDetail, body["detail"])
			assert.Zero(t, model.calls, "model must not run for rejected requests")
		})
	}
}

func TestPredictModelNotLoaded(t *testing.T) {
	app := newApp(t, service.NotLoaded(), secrets.NewAPIKey(testKey))

	status, body := post(t, app, ptr(testKey), sampleBody)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Model is not loaded properly!", body["detail"])

	// The key check still runs first.
	status, body = post(t, app, ptr("wrong"), sampleBody)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Invalid API Key", body["detail"])
}

func TestPredictValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{name: "empty body", body: "", wantDetail: "request body is required"},
		{name: "not json", body: "{", wantDetail: "invalid JSON body"},
		{name: "missing field", body: `{"TotalCharges":1000.0,"MonthlyCharges":50.0,"tenure":12,"Contract":0,"PaymentMethod":1}`, wantDetail: "OnlineSecurity"},
		{name: "several missing", body: `{"TotalCharges":1000.0}`, wantDetail: "missing required fields: MonthlyCharges, tenure"},
		{name: "wrong type", body: `{"TotalCharges":"abc","MonthlyCharges":50.0,"tenure":12,"Contract":0,"PaymentMethod":1,"OnlineSecurity":0}`, wantDetail: "invalid JSON body"},
		{name: "fractional integer", body: `{"TotalCharges":1000.0,"MonthlyCharges":50.0,"tenure":12.5,"Contract":0,"PaymentMethod":1,"OnlineSecurity":0}`, wantDetail: "invalid JSON body"},
		{name: "string integer", body: `{"TotalCharges":1000.0,"MonthlyCharges":50.0,"tenure":"12","Contract":0,"PaymentMethod":1,"OnlineSecurity":0}`, wantDetail: "invalid JSON body"},
		{name: "null field", body: `{"TotalCharges":null,"MonthlyCharges":50.0,"tenure":12,"Contract":0,"PaymentMethod":1,"OnlineSecurity":0}`, wantDetail: "TotalCharges"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &countingPredictor{p: 0.9}
			app := newApp(t, service.Loaded(model), secrets.NewAPIKey(testKey))

			status, body := post(t, app, ptr(testKey), tt.body)
			assert.Equal(t, fiber.StatusUnprocessableEntity, status)
			detail, _ := body["detail"].(string)
			assert.Contains(t, detail, tt.wantDetail)
			assert.Zero(t, model.calls)
		})
	}
}

func TestPredictZeroValuesAreAccepted(t *testing.T) {
	model := &countingPredictor{p: 0.2}
	app := newApp(t, service.Loaded(model), secrets.NewAPIKey(testKey))

	status, body := post(t, app, ptr(testKey),
		`{"TotalCharges":0,"MonthlyCharges":0,"tenure":0,"Contract":0,"PaymentMethod":0,"OnlineSecurity":0}`)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, float64(0), body["churn_prediction"])
	assert.Equal(t, 0.2, body["churn_probability"])
	assert.Equal(t, 1, model.calls)
}

func TestPredictInternalError(t *testing.T) {
	tests := []struct {
		name  string
		model *countingPredictor
	}{
		{name: "inference failure", model: &countingPredictor{err: errors.New("endpoint unavailable")}},
		{name: "probability out of range", model: &countingPredictor{p: 1.7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(t, service.Loaded(tt.model), secrets.NewAPIKey(testKey))

			status, body := post(t, app, ptr(testKey), sampleBody)
			assert.Equal(t, fiber.StatusInternalServerError, status)
			assert.Equal(t, "Internal Server Error", body["detail"])
		})
	}
}

func TestPredictAcceptsIntegralFloats(t *testing.T) {
	app := newApp(t, service.LoadModel(fixtureModel), secrets.NewAPIKey(testKey))

	status, body := post(t, app, ptr(testKey),
		`{"TotalCharges":1000,"MonthlyCharges":50,"tenure":12.0,"Contract":0.0,"PaymentMethod":1.0,"OnlineSecurity":0}`)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, float64(1), body["churn_prediction"])
	assert.Equal(t, 0.5866, body["churn_probability"])
}

func TestRegisterLeavesGuardsUntouched(t *testing.T) {
	guards := make([]fiber.Handler, 1, 2)
	guards[0] = func(c *fiber.Ctx) error { return c.Next() }

	NewPredictHandler(service.NewPredictionService(service.NotLoaded(), nil, nil)).
		Register(fiber.New(), guards...)

	assert.Nil(t, guards[:2][1], "spare capacity of the caller's slice must not be written")
}

func TestPanicIsRecovered(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	app := NewApp(ServerOptions{}, Dependencies{
		Predictions: panicService{},
		APIKey:      secrets.NewAPIKey(testKey),
	})

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(sampleBody))
	req.Header.Set("x-api-key", testKey)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, string(raw))

	id := resp.Header.Get(fiber.HeaderXRequestID)
	require.NotEmpty(t, id)

	var panicLine, accessLine map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal(line, &entry), string(line))
		switch entry["message"] {
		case "[HTTP] panic recovered":
			panicLine = entry
		case "[HTTP] request":
			accessLine = entry
		}
	}

	require.NotNil(t, panicLine, buf.String())
	assert.Equal(t, id, panicLine["request_id"])
	assert.Equal(t, "boom", panicLine["panic"])
	assert.Equal(t, "/predict", panicLine["path"])
	assert.NotEmpty(t, panicLine["ip"])

	require.NotNil(t, accessLine, buf.String())
	assert.Equal(t, id, accessLine["request_id"])
	assert.Equal(t, float64(fiber.StatusInternalServerError), accessLine["status"])
}

func TestRoot(t *testing.T) {
	for name, model := range map[string]service.ModelState{
		"loaded":     service.LoadModel(fixtureModel),
		"not loaded": service.NotLoaded(),
	} {
		t.Run(name, func(t *testing.T) {
			app := newApp(t, model, secrets.APIKey{})

			status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, map[string]any{"message": RootMessage}, body)
		})
	}
}

func TestHealth(t *testing.T) {
	app := newApp(t, service.LoadModel(fixtureModel), secrets.NewAPIKey(testKey))
	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]any{
		"status":  "ok",
		"model":   "loaded",
		"api_key": "configured",
		"audit":   "not_configured",
	}, body)

	app = newApp(t, service.NotLoaded(), secrets.APIKey{})
	status, body = do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "not_loaded", body["model"])
	assert.Equal(t, "not_configured", body["api_key"])
}

func TestRequestIDHeader(t *testing.T) {
	app := newApp(t, service.NotLoaded(), secrets.APIKey{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestMetricsEndpoint(t *testing.T) {
	app := newApp(t, service.LoadModel(fixtureModel), secrets.NewAPIKey(testKey))

	status, _ := post(t, app, ptr(testKey), sampleBody)
	require.Equal(t, fiber.StatusOK, status)
	_, _ = post(t, app, ptr("wrong"), sampleBody)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(raw)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, text, `churn_predictions_total{label="1"} 1`)
	assert.Contains(t, text, `churn_auth_rejections_total{reason="invalid_key"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	app := NewApp(ServerOptions{}, Dependencies{
		Predictions: service.NewPredictionService(service.NotLoaded(), nil, nil),
	})

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, body["detail"], "Cannot GET /metrics")
}
