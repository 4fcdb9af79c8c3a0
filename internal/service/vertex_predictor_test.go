package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestInstance(t *testing.T) {
	v, err := Instance([]float64{1000, 50, 12, 0, 1, 0})
	require.NoError(t, err)

	values := v.GetListValue().GetValues()
	require.Len(t, values, 6)
	assert.Equal(t, 1000.0, values[0].GetNumberValue())
	assert.Equal(t, 12.0, values[2].GetNumberValue())
}

func TestParsePrediction(t *testing.T) {
	list, err := structpb.NewList([]interface{}{0.3, 0.7})
	require.NoError(t, err)
	empty, err := structpb.NewList(nil)
	require.NoError(t, err)
	strs, err := structpb.NewList([]interface{}{"a"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   *structpb.Value
		want    float64
		wantErr bool
	}{
		{name: "number", value: structpb.NewNumberValue(0.42), want: 0.42},
		{name: "class probabilities", value: structpb.NewListValue(list), want: 0.7},
		{name: "empty list", value: structpb.NewListValue(empty), wantErr: true},
		{name: "list of strings", value: structpb.NewListValue(strs), wantErr: true},
		{name: "string", value: structpb.NewStringValue("0.4"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrediction(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEndpointName(t *testing.T) {
	assert.Equal(t, "projects/p/locations/europe-west4/endpoints/123", EndpointName("p", "europe-west4", "123"))
}

func TestNewVertexPredictorRequiresIDs(t *testing.T) {
	_, err := NewVertexPredictor(context.Background(), "", "us-central1", "123", "")
	assert.Error(t, err)

	_, err = NewVertexPredictor(context.Background(), "p", "us-central1", "", "")
	assert.Error(t, err)
}
