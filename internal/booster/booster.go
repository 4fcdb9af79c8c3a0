// Package booster evaluates gradient-boosted tree ensembles saved by XGBoost
// in its JSON model format.
//
// Only the pieces needed for binary classification are supported: gbtree
// and dart boosters with numerical splits and a logistic objective. The
// evaluator is read-only after loading and safe for concurrent use.
package booster

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

var (
	// ErrModelNotFound is returned by LoadFile when no file exists at the path.
	ErrModelNotFound = errors.New("booster: model file not found")
	// ErrFeatureCount is returned by Predict for a vector of the wrong length.
	ErrFeatureCount = errors.New("booster: wrong number of features")
)

// Supported objectives. All of them produce a probability after the
// logistic transform.
const (
	ObjectiveBinaryLogistic = "binary:logistic"
	ObjectiveRegLogistic    = "reg:logistic"
	ObjectiveBinaryLogitRaw = "binary:logitraw"
)

// Booster is a loaded tree ensemble.
type Booster struct {
	name         string
	objective    string
	baseScore    float64
	baseMargin   float32
	numFeature   int
	featureNames []string
	trees        []tree
	weights      []float32
	version      []int
}

// Info summarises a loaded model for logging and the CLI.
type Info struct {
	Booster      string   `json:"booster"`
	Objective    string   `json:"objective"`
	BaseScore    float64  `json:"base_score"`
	NumTrees     int      `json:"num_trees"`
	NumFeature   int      `json:"num_feature"`
	FeatureNames []string `json:"feature_names,omitempty"`
	Version      string   `json:"xgboost_version,omitempty"`
}

// LoadFile reads and parses the model at path.
func LoadFile(path string) (*Booster, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	b, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return b, nil
}

// Load parses a JSON model from r.
func Load(r io.Reader) (*Booster, error) {
	var doc modelFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model json: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc modelFile) (*Booster, error) {
	l := doc.Learner

	objective := l.Objective.Name
	switch objective {
	case ObjectiveBinaryLogistic, ObjectiveRegLogistic, ObjectiveBinaryLogitRaw:
	default:
		return nil, fmt.Errorf("unsupported objective %q", objective)
	}

	if nc := l.LearnerModelParm.NumClass; nc != "" {
		n, err := parseParam(nc)
		if err != nil {
			return nil, fmt.Errorf("num_class: %w", err)
		}
		if n > 1 {
			return nil, fmt.Errorf("multi-class models are not supported (num_class=%v)", n)
		}
	}

	baseScore := 0.5
	if bs := l.LearnerModelParm.BaseScore; bs != "" {
		v, err := parseParam(bs)
		if err != nil {
			return nil, fmt.Errorf("base_score: %w", err)
		}
		baseScore = v
	}
	if baseScore <= 0 || baseScore >= 1 {
		return nil, fmt.Errorf("base_score %v outside (0,1)", baseScore)
	}

	numFeature := 0
	if nf := l.LearnerModelParm.NumFeature; nf != "" {
		v, err := parseParam(nf)
		if err != nil {
			return nil, fmt.Errorf("num_feature: %w", err)
		}
		numFeature = int(v)
	}
	if len(l.FeatureNames) > 0 && numFeature != 0 && len(l.FeatureNames) != numFeature {
		return nil, fmt.Errorf("feature_names has %d entries, num_feature is %d", len(l.FeatureNames), numFeature)
	}
	if numFeature == 0 {
		numFeature = len(l.FeatureNames)
	}

	gb := l.GradientBooster
	var model *gbtreeModel
	switch gb.Name {
	case "gbtree":
		model = gb.Model
	case "dart":
		if gb.GBTree != nil {
			model = &gb.GBTree.Model
		}
	default:
		return nil, fmt.Errorf("unsupported booster %q", gb.Name)
	}
	if model == nil {
		return nil, fmt.Errorf("%s booster has no model section", gb.Name)
	}
	if len(model.Trees) == 0 {
		return nil, errors.New("model has no trees")
	}
	if gb.Name == "dart" && len(gb.WeightDrop) != len(model.Trees) {
		return nil, fmt.Errorf("dart weight_drop has %d entries for %d trees", len(gb.WeightDrop), len(model.Trees))
	}

	b := &Booster{
		name:         gb.Name,
		objective:    objective,
		baseScore:    baseScore,
		baseMargin:   float32(probToMargin(baseScore)),
		numFeature:   numFeature,
		featureNames: append([]string(nil), l.FeatureNames...),
		trees:        make([]tree, len(model.Trees)),
		weights:      make([]float32, len(model.Trees)),
		version:      doc.Version,
	}
	for i, td := range model.Trees {
		t, err := newTree(td, numFeature)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		b.trees[i] = t
		b.weights[i] = 1
		if gb.Name == "dart" {
			b.weights[i] = float32(gb.WeightDrop[i])
		}
	}
	return b, nil
}

// NumFeatures is the feature vector length the model was trained on.
func (b *Booster) NumFeatures() int { return b.numFeature }

// FeatureNames returns the training column names if the model carries them.
func (b *Booster) FeatureNames() []string {
	return append([]string(nil), b.featureNames...)
}

// PredictMargin returns the untransformed score: the base margin plus the
// weighted sum of one leaf per tree. NaN entries are treated as missing.
func (b *Booster) PredictMargin(features []float64) (float64, error) {
	if b.numFeature > 0 && len(features) != b.numFeature {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(features), b.numFeature)
	}
	fv := make([]float32, len(features))
	for i, x := range features {
		fv[i] = float32(x)
	}

	sum := b.baseMargin
	for i := range b.trees {
		sum += b.trees[i].leaf(fv) * b.weights[i]
	}
	return float64(sum), nil
}

// Predict returns the probability of the positive class.
func (b *Booster) Predict(features []float64) (float64, error) {
	margin, err := b.PredictMargin(features)
	if err != nil {
		return 0, err
	}
	return sigmoid(margin), nil
}

// Info describes the loaded model.
func (b *Booster) Info() Info {
	info := Info{
		Booster:      b.name,
		Objective:    b.objective,
		BaseScore:    b.baseScore,
		NumTrees:     len(b.trees),
		NumFeature:   b.numFeature,
		FeatureNames: b.FeatureNames(),
	}
	if len(b.version) > 0 {
		parts := make([]string, len(b.version))
		for i, v := range b.version {
			parts[i] = fmt.Sprint(v)
		}
		info.Version = strings.Join(parts, ".")
	}
	return info
}

func probToMargin(p float64) float64 {
	return -math.Log(1/p - 1)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
