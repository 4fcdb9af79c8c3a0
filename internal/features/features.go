// Package features turns churn inputs into the model's feature vector.
//
// The column order is fixed by training and must not change:
// TotalCharges, MonthlyCharges, tenure, Contract, PaymentMethod, OnlineSecurity.
package features

import (
	"fmt"

	"github.com/himanshu-dandle/telco-customer-churn/internal/models"
)

// Names lists the model columns in training order.
var Names = []string{
	"TotalCharges",
	"MonthlyCharges",
	"tenure",
	"Contract",
	"PaymentMethod",
	"OnlineSecurity",
}

// Count is the length of every feature vector.
const Count = 6

// Vector assembles the feature vector for req in training order.
func Vector(req models.ChurnRequest) []float64 {
	return []float64{
		req.TotalCharges,
		req.MonthlyCharges,
		float64(req.Tenure),
		float64(req.Contract),
		float64(req.PaymentMethod),
		float64(req.OnlineSecurity),
	}
}

// CheckSchema verifies that a model trained on modelNames (possibly empty
// when the model does not record names) with numFeature columns accepts
// vectors built by Vector.
func CheckSchema(numFeature int, modelNames []string) error {
	if numFeature != Count {
		return fmt.Errorf("model expects %d features, service provides %d", numFeature, Count)
	}
	if len(modelNames) == 0 {
		return nil
	}
	if len(modelNames) != Count {
		return fmt.Errorf("model names %d features, service provides %d", len(modelNames), Count)
	}
	for i, name := range Names {
		if modelNames[i] != name {
			return fmt.Errorf("feature %d is %q in the model, %q in the service", i, modelNames[i], name)
		}
	}
	return nil
}
