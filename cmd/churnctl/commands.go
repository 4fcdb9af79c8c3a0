package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/himanshu-dandle/telco-customer-churn/internal/booster"
	"github.com/himanshu-dandle/telco-customer-churn/internal/config"
	"github.com/himanshu-dandle/telco-customer-churn/internal/database"
	"github.com/himanshu-dandle/telco-customer-churn/internal/evaluation"
	"github.com/himanshu-dandle/telco-customer-churn/internal/models"
	"github.com/himanshu-dandle/telco-customer-churn/internal/repository"
	"github.com/himanshu-dandle/telco-customer-churn/internal/service"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadPredictor loads the local model or fails with the reason.
func loadPredictor(path string) (service.Predictor, error) {
	p, ok := service.LoadModel(path).Predictor()
	if !ok {
		return nil, fmt.Errorf("model %s could not be loaded", path)
	}
	return p, nil
}

func newInspectCmd(cfg config.Config) *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the booster type, objective, base score, trees and features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := booster.LoadFile(modelPath)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), b.Info())
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", cfg.ModelPath, "path to the XGBoost JSON model")
	return cmd
}

func newPredictCmd(cfg config.Config) *cobra.Command {
	var (
		modelPath string
		req       models.ChurnRequest
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one customer with the local model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPredictor(modelPath)
			if err != nil {
				return err
			}
			svc := service.NewPredictionService(service.Loaded(p), nil, nil)
			resp, err := svc.Predict(cmd.Context(), req, service.RequestMeta{RequestID: "churnctl"})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	f := cmd.Flags()
	f.StringVar(&modelPath, "model", cfg.ModelPath, "path to the XGBoost JSON model")
	f.Float64Var(&req.TotalCharges, "total-charges", 0, "TotalCharges")
	f.Float64Var(&req.MonthlyCharges, "monthly-charges", 0, "MonthlyCharges")
	f.IntVar(&req.Tenure, "tenure", 0, "tenure in months")
	f.IntVar(&req.Contract, "contract", 0, "encoded Contract (0 month-to-month, 1 one year, 2 two year)")
	f.IntVar(&req.PaymentMethod, "payment-method", 0, "encoded PaymentMethod")
	f.IntVar(&req.OnlineSecurity, "online-security", 0, "encoded OnlineSecurity")
	for _, name := range []string{"total-charges", "monthly-charges", "tenure", "contract", "payment-method", "online-security"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newEvaluateCmd(cfg config.Config) *cobra.Command {
	var (
		modelPath string
		dataPath  string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a labelled telco CSV and report classification metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if threshold < 0 || threshold > 1 {
				return fmt.Errorf("threshold must be in [0,1], got %v", threshold)
			}
			p, err := loadPredictor(modelPath)
			if err != nil {
				return err
			}

			f, err := os.Open(dataPath)
			if err != nil {
				return fmt.Errorf("open dataset: %w", err)
			}
			defer f.Close()

			ds, err := evaluation.ReadCSV(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", dataPath, err)
			}
			if ds.Imputed > 0 {
				log.Info().Int("rows", ds.Imputed).Float64("median", ds.Median).Msg("[Evaluate] filled blank TotalCharges with the median")
			}

			report, err := evaluation.Evaluate(cmd.Context(), p, ds, threshold)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	f := cmd.Flags()
	f.StringVar(&modelPath, "model", cfg.ModelPath, "path to the XGBoost JSON model")
	f.StringVar(&dataPath, "data", "", "labelled telco CSV")
	f.Float64Var(&threshold, "threshold", service.ChurnThreshold, "probability above which a customer counts as churned")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

type auditSummary struct {
	Count       int                       `json:"count"`
	ChurnRate   float64                   `json:"churn_rate"`
	Predictions []models.PredictionRecord `json:"predictions"`
}

func newAuditCmd(cfg config.Config) *cobra.Command {
	var (
		uri   string
		db    string
		limit int64
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recent served predictions and their churn rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if uri == "" {
				return fmt.Errorf("no MongoDB URI: set MONGODB_URI or --mongo-uri")
			}
			if limit <= 0 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}

			ctx := cmd.Context()
			client, err := database.NewMongo(ctx, uri, 10*time.Second)
			if err != nil {
				return fmt.Errorf("connect to MongoDB: %w", err)
			}
			defer client.Disconnect(context.Background())

			repo := repository.NewPredictionRepository(client.Database(db), 10*time.Second)
			recs, err := repo.Recent(ctx, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summarize(recs))
		},
	}

	f := cmd.Flags()
	f.StringVar(&uri, "mongo-uri", cfg.MongoURI, "MongoDB connection string")
	f.StringVar(&db, "db", cfg.DBName, "database holding the predictions collection")
	f.Int64Var(&limit, "limit", 100, "number of most recent predictions to read")
	return cmd
}

func summarize(recs []models.PredictionRecord) auditSummary {
	labels := make([]int, len(recs))
	for i, r := range recs {
		labels[i] = r.ChurnPrediction
	}
	if recs == nil {
		recs = []models.PredictionRecord{}
	}
	return auditSummary{
		Count:       len(recs),
		ChurnRate:   service.Round4(evaluation.ChurnRate(labels)),
		Predictions: recs,
	}
}
