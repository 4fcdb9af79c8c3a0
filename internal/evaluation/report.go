package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/himanshu-dandle/telco-customer-churn/internal/features"
	"github.com/himanshu-dandle/telco-customer-churn/internal/service"
)

// ConfusionMatrix counts outcomes with churn (1) as the positive class.
type ConfusionMatrix struct {
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TP int `json:"tp"`
}

// Report summarises a model on a dataset.
type Report struct {
	Samples   int             `json:"samples"`
	Threshold float64         `json:"threshold"`
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	ROCAUC    float64         `json:"roc_auc"`
	Confusion ConfusionMatrix `json:"confusion_matrix"`
}

// Evaluate scores every sample with p and labels it positive when the
// probability exceeds threshold.
func Evaluate(ctx context.Context, p service.Predictor, ds Dataset, threshold float64) (Report, error) {
	if len(ds.Samples) == 0 {
		return Report{}, errors.New("empty dataset")
	}

	scores := make([]float64, len(ds.Samples))
	labels := make([]int, len(ds.Samples))
	for i, s := range ds.Samples {
		prob, err := p.Predict(ctx, features.Vector(s.Request))
		if err != nil {
			return Report{}, fmt.Errorf("sample %d: %w", i, err)
		}
		scores[i] = prob
		labels[i] = s.Label
	}
	return Score(scores, labels, threshold), nil
}

// Score computes the report from probabilities and true labels.
func Score(scores []float64, labels []int, threshold float64) Report {
	r := Report{Samples: len(scores), Threshold: threshold}
	for i, s := range scores {
		predicted := s > threshold
		switch {
		case predicted && labels[i] == 1:
			r.Confusion.TP++
		case predicted:
			r.Confusion.FP++
		case labels[i] == 1:
			r.Confusion.FN++
		default:
			r.Confusion.TN++
		}
	}

	cm := r.Confusion
	r.Accuracy = ratio(cm.TP+cm.TN, len(scores))
	r.Precision = ratio(cm.TP, cm.TP+cm.FP)
	r.Recall = ratio(cm.TP, cm.TP+cm.FN)
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
	r.ROCAUC = ROCAUC(scores, labels)
	return r
}

// ROCAUC is the area under the ROC curve, computed as the Mann-Whitney U
// statistic with tied scores sharing their average rank. It is 0 when only
// one class is present.
func ROCAUC(scores []float64, labels []int) float64 {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	var pos, neg int
	var rankSum float64
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && scores[idx[j]] == scores[idx[i]] {
			j++
		}
		// Ranks are 1-based; the tie group spans ranks i+1..j.
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			if labels[idx[k]] == 1 {
				rankSum += avg
				pos++
			} else {
				neg++
			}
		}
		i = j
	}
	if pos == 0 || neg == 0 {
		return 0
	}
	return (rankSum - float64(pos*(pos+1))/2) / float64(pos*neg)
}

// ChurnRate is the share of positive labels, in percent.
func ChurnRate(labels []int) float64 {
	pos := 0
	for _, l := range labels {
		pos += l
	}
	return 100 * ratio(pos, len(labels))
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
