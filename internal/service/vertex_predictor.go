package service

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

// VertexPredictor scores through a Vertex AI endpoint serving the same
// XGBoost artifact (prebuilt XGBoost container).
type VertexPredictor struct {
	client   *aiplatform.PredictionClient
	endpoint string
}

// NewVertexPredictor creates a prediction client for
// projects/<projectID>/locations/<location>/endpoints/<endpointID>.
func NewVertexPredictor(ctx context.Context, projectID, location, endpointID, credentialsFile string) (*VertexPredictor, error) {
	if projectID == "" || endpointID == "" {
		return nil, fmt.Errorf("vertex backend needs GCP_PROJECT_ID and VERTEX_ENDPOINT_ID")
	}
	if location == "" {
		location = "us-central1"
	}

	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", location)),
	}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := aiplatform.NewPredictionClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &VertexPredictor{
		client:   client,
		endpoint: EndpointName(projectID, location, endpointID),
	}, nil
}

// EndpointName is the resource name of a Vertex AI endpoint.
func EndpointName(projectID, location, endpointID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/endpoints/%s", projectID, location, endpointID)
}

// Predict sends vec as a single instance and reads back one probability.
func (v *VertexPredictor) Predict(ctx context.Context, vec []float64) (float64, error) {
	instance, err := Instance(vec)
	if err != nil {
		return 0, err
	}

	resp, err := v.client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:  v.endpoint,
		Instances: []*structpb.Value{instance},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get prediction: %w", err)
	}
	if len(resp.Predictions) == 0 {
		return 0, fmt.Errorf("no predictions returned")
	}
	return ParsePrediction(resp.Predictions[0])
}

// Name implements Predictor.
func (v *VertexPredictor) Name() string { return v.endpoint }

// Close releases the Vertex AI client resources.
func (v *VertexPredictor) Close() error {
	return v.client.Close()
}

// Instance encodes a feature vector as a list value.
func Instance(vec []float64) (*structpb.Value, error) {
	items := make([]interface{}, len(vec))
	for i, x := range vec {
		items[i] = x
	}
	list, err := structpb.NewList(items)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}
	return structpb.NewListValue(list), nil
}

// ParsePrediction accepts the shapes the XGBoost serving container returns
// for a binary model: a bare number, or a list whose last element is the
// positive-class probability.
func ParsePrediction(v *structpb.Value) (float64, error) {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return kind.NumberValue, nil
	case *structpb.Value_ListValue:
		values := kind.ListValue.GetValues()
		if len(values) == 0 {
			return 0, fmt.Errorf("empty prediction list")
		}
		last, ok := values[len(values)-1].GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return 0, fmt.Errorf("unexpected prediction element type %T", values[len(values)-1].GetKind())
		}
		return last.NumberValue, nil
	default:
		return 0, fmt.Errorf("unexpected prediction type %T", kind)
	}
}
