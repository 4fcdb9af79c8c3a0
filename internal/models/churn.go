package models

import "time"

// ChurnRequest is the payload for POST /predict. The JSON keys match the
// column names the model was trained on.
type ChurnRequest struct {
	TotalCharges   float64 `json:"TotalCharges"   bson:"total_charges"`
	MonthlyCharges float64 `json:"MonthlyCharges" bson:"monthly_charges"`
	Tenure         int     `json:"tenure"         bson:"tenure"`
	Contract       int     `json:"Contract"       bson:"contract"`
	PaymentMethod  int     `json:"PaymentMethod"  bson:"payment_method"`
	OnlineSecurity int     `json:"OnlineSecurity" bson:"online_security"`
}

// Prediction is the response body of POST /predict.
type Prediction struct {
	ChurnPrediction  int     `json:"churn_prediction"`
	ChurnProbability float64 `json:"churn_probability"`
	ResponseTime     float64 `json:"response_time"` // seconds
}

// PredictionRecord is the audit document written for every served prediction.
type PredictionRecord struct {
	ID               string       `bson:"_id"               json:"id"`
	RequestID        string       `bson:"request_id"        json:"request_id"`
	ClientIP         string       `bson:"client_ip"         json:"client_ip"`
	Input            ChurnRequest `bson:"input"             json:"input"`
	ChurnPrediction  int          `bson:"churn_prediction"  json:"churn_prediction"`
	ChurnProbability float64      `bson:"churn_probability" json:"churn_probability"`
	ResponseTime     float64      `bson:"response_time"     json:"response_time"`
	Model            string       `bson:"model"             json:"model"`
	CreatedAt        time.Time    `bson:"created_at"        json:"created_at"`
}
