package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/himanshu-dandle/telco-customer-churn/internal/booster"
	"github.com/himanshu-dandle/telco-customer-churn/internal/features"
)

// Predictor defines the interface for churn scoring backends.
type Predictor interface {
	// Predict returns the churn probability for one feature vector laid out
	// in features.Names order.
	Predict(ctx context.Context, vec []float64) (float64, error)
	// Name identifies the model in logs and audit records.
	Name() string
}

// ModelState is the result of loading the model at startup. The zero value
// means no model is loaded; callers must unwrap it with Predictor.
type ModelState struct {
	predictor Predictor
}

// Loaded wraps a ready predictor.
func Loaded(p Predictor) ModelState { return ModelState{predictor: p} }

// NotLoaded is the state after a failed load.
func NotLoaded() ModelState { return ModelState{} }

// Predictor returns the loaded predictor, or false when there is none.
func (m ModelState) Predictor() (Predictor, bool) {
	return m.predictor, m.predictor != nil
}

// IsLoaded reports whether a predictor is available.
func (m ModelState) IsLoaded() bool { return m.predictor != nil }

// LocalPredictor scores with an in-process XGBoost booster.
type LocalPredictor struct {
	booster *booster.Booster
	name    string
}

// NewLocalPredictor checks that b was trained on the service's feature
// layout and wraps it.
func NewLocalPredictor(b *booster.Booster, name string) (*LocalPredictor, error) {
	if b == nil {
		return nil, errors.New("nil booster")
	}
	if err := features.CheckSchema(b.NumFeatures(), b.FeatureNames()); err != nil {
		return nil, err
	}
	return &LocalPredictor{booster: b, name: name}, nil
}

// Predict implements Predictor.
func (p *LocalPredictor) Predict(_ context.Context, vec []float64) (float64, error) {
	return p.booster.Predict(vec)
}

// Name implements Predictor.
func (p *LocalPredictor) Name() string { return p.name }

// Info describes the underlying booster.
func (p *LocalPredictor) Info() booster.Info { return p.booster.Info() }

// LoadModel loads the booster at path. A missing or corrupt file is logged
// and yields NotLoaded; the service keeps running and rejects predictions.
func LoadModel(path string) ModelState {
	log.Info().Str("path", path).Msg("[Model] loading model")

	b, err := booster.LoadFile(path)
	if err != nil {
		if errors.Is(err, booster.ErrModelNotFound) {
			log.Error().Str("path", path).Msg("[Model] model file not found; check deployment")
		} else {
			log.Error().Err(err).Str("path", path).Msg("[Model] error loading model")
		}
		return NotLoaded()
	}

	p, err := NewLocalPredictor(b, path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("[Model] model does not match the feature layout")
		return NotLoaded()
	}

	info := b.Info()
	log.Info().
		Str("path", path).
		Str("booster", info.Booster).
		Str("objective", info.Objective).
		Int("trees", info.NumTrees).
		Msg("[Model] model loaded successfully")
	return Loaded(p)
}
