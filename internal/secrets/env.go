package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvStore serves secrets from environment variables, for local runs.
// The variable name is the secret name upper-cased with '-' replaced by '_',
// so "API-KEY" is read from API_KEY.
type EnvStore struct{}

// GetSecret implements Store.
func (EnvStore) GetSecret(_ context.Context, name string) (string, error) {
	key := EnvName(name)
	val, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", key)
	}
	return val, nil
}

// EnvName maps a secret name to its environment variable.
func EnvName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
