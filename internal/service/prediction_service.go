package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/himanshu-dandle/telco-customer-churn/internal/features"
	"github.com/himanshu-dandle/telco-customer-churn/internal/metrics"
	"github.com/himanshu-dandle/telco-customer-churn/internal/models"
)

// ChurnThreshold separates the two labels: probability > ChurnThreshold is churn.
const ChurnThreshold = 0.5

var (
	// ErrModelNotLoaded is returned for every prediction when startup could
	// not load a model.
	ErrModelNotLoaded = errors.New("model is not loaded")
	// ErrInvalidProbability means the model produced a value outside [0,1].
	ErrInvalidProbability = errors.New("model returned an invalid probability")
)

// ---- Audit contract --------------------------------------------------------

// PredictionRecorder persists served predictions. The implementation
// typically writes to MongoDB.
type PredictionRecorder interface {
	Record(ctx context.Context, rec models.PredictionRecord) error
}

// ---- Service interface + implementation ------------------------------------

// RequestMeta carries per-request context used for timing and diagnostics.
type RequestMeta struct {
	RequestID string
	ClientIP  string
	Start     time.Time
}

// PredictionService turns a churn request into a labelled probability.
type PredictionService interface {
	Predict(ctx context.Context, req models.ChurnRequest, meta RequestMeta) (models.Prediction, error)
	ModelLoaded() bool
}

type predictionService struct {
	model    ModelState
	recorder PredictionRecorder
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewPredictionService wires the model state with the optional recorder and
// metrics (either may be nil).
func NewPredictionService(model ModelState, recorder PredictionRecorder, m *metrics.Metrics) PredictionService {
	return &predictionService{
		model:    model,
		recorder: recorder,
		metrics:  m,
		now:      time.Now,
	}
}

// ModelLoaded reports whether predictions can be served.
func (s *predictionService) ModelLoaded() bool { return s.model.IsLoaded() }

// Predict scores req. Elapsed time is measured from meta.Start (or the call
// itself when zero) up to just before the response is built.
func (s *predictionService) Predict(ctx context.Context, req models.ChurnRequest, meta RequestMeta) (models.Prediction, error) {
	start := meta.Start
	if start.IsZero() {
		start = s.now()
	}

	predictor, ok := s.model.Predictor()
	if !ok {
		s.metrics.ObserveFailure("model_not_loaded")
		log.Error().Str("request_id", meta.RequestID).Msg("[Prediction] prediction failed: model is not loaded")
		return models.Prediction{}, ErrModelNotLoaded
	}

	vec := features.Vector(req)
	log.Info().
		Str("request_id", meta.RequestID).
		Str("client_ip", meta.ClientIP).
		Interface("input", req).
		Msg("[Prediction] received prediction request")

	probability, err := predictor.Predict(ctx, vec)
	if err != nil {
		s.metrics.ObserveFailure("inference")
		return models.Prediction{}, fmt.Errorf("predict with %s: %w", predictor.Name(), err)
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		s.metrics.ObserveFailure("invalid_probability")
		return models.Prediction{}, fmt.Errorf("%w: %v", ErrInvalidProbability, probability)
	}

	// Thresholding the rounded value keeps the label consistent with the
	// probability the caller sees.
	rounded := Round4(probability)
	label := Label(rounded)
	elapsed := s.now().Sub(start).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	resp := models.Prediction{
		ChurnPrediction:  label,
		ChurnProbability: rounded,
		ResponseTime:     Round4(elapsed),
	}
	s.metrics.ObservePrediction(label, elapsed)

	log.Info().
		Str("request_id", meta.RequestID).
		Str("client_ip", meta.ClientIP).
		Int("prediction", resp.ChurnPrediction).
		Float64("probability", resp.ChurnProbability).
		Float64("response_time", resp.ResponseTime).
		Msg("[Prediction] prediction served")

	s.record(ctx, req, meta, resp, predictor.Name())
	return resp, nil
}

// record writes the audit document. Failures are logged and never affect
// the response.
func (s *predictionService) record(ctx context.Context, req models.ChurnRequest, meta RequestMeta, resp models.Prediction, model string) {
	if s.recorder == nil {
		return
	}
	rec := models.PredictionRecord{
		ID:               uuid.NewString(),
		RequestID:        meta.RequestID,
		ClientIP:         meta.ClientIP,
		Input:            req,
		ChurnPrediction:  resp.ChurnPrediction,
		ChurnProbability: resp.ChurnProbability,
		ResponseTime:     resp.ResponseTime,
		Model:            model,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		log.Warn().Err(err).Str("request_id", meta.RequestID).Msg("[Prediction] failed to record prediction")
	}
}

// Label thresholds a probability: 1 (churn) iff p > ChurnThreshold.
func Label(p float64) int {
	if p > ChurnThreshold {
		return 1
	}
	return 0
}

// Round4 rounds x to four decimal places.
func Round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
