package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanshu-dandle/telco-customer-churn/internal/config"
)

const fixtureModel = "../../testdata/churn_model.json"

func TestLoadModel(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.Config
		wantLoaded bool
	}{
		{name: "local fixture", cfg: config.Config{ModelBackend: "local", ModelPath: fixtureModel}, wantLoaded: true},
		{name: "empty backend means local", cfg: config.Config{ModelPath: fixtureModel}, wantLoaded: true},
		{name: "missing model file", cfg: config.Config{ModelBackend: "local", ModelPath: filepath.Join(t.TempDir(), "absent.json")}},
		{name: "unknown backend", cfg: config.Config{ModelBackend: "bogus", ModelPath: fixtureModel}},
		{name: "vertex without endpoint", cfg: config.Config{ModelBackend: "vertex", ProjectID: "proj"}},
		{name: "vertex without project", cfg: config.Config{ModelBackend: "vertex", VertexEndpointID: "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, cleanup := loadModel(context.Background(), tt.cfg)
			require.NotNil(t, cleanup)
			defer cleanup()
			assert.Equal(t, tt.wantLoaded, state.IsLoaded())
		})
	}
}

func TestLoadAPIKey(t *testing.T) {
	t.Run("env provider", func(t *testing.T) {
		t.Setenv("API_KEY", " k3y ")
		key := loadAPIKey(context.Background(), config.Config{
			SecretProvider: "env",
			SecretName:     "API-KEY",
			SecretTimeout:  time.Second,
		})
		require.True(t, key.Configured())
		assert.NoError(t, key.Verify("k3y"))
	})

	t.Run("env provider without variable", func(t *testing.T) {
		t.Setenv("API_KEY", "")
		key := loadAPIKey(context.Background(), config.Config{
			SecretProvider: "env",
			SecretName:     "API-KEY",
			SecretTimeout:  time.Second,
		})
		assert.False(t, key.Configured())
	})

	t.Run("unknown provider", func(t *testing.T) {
		key := loadAPIKey(context.Background(), config.Config{
			SecretProvider: "bogus",
			SecretName:     "API-KEY",
			SecretTimeout:  time.Second,
		})
		assert.False(t, key.Configured())
	})

	t.Run("azure without vault name", func(t *testing.T) {
		key := loadAPIKey(context.Background(), config.Config{
			SecretProvider: "azure",
			SecretName:     "API-KEY",
			SecretTimeout:  time.Second,
		})
		assert.False(t, key.Configured())
	})
}
