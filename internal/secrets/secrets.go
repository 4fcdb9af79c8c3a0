// Package secrets fetches the API key from a key vault at startup and
// verifies request keys against it.
package secrets

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// ErrKeyNotConfigured means the service has no API key, so no request
	// can be authenticated.
	ErrKeyNotConfigured = errors.New("api key is not configured")
	// ErrInvalidKey means the request key is missing or does not match.
	ErrInvalidKey = errors.New("invalid api key")
)

// Store fetches a secret value by name.
type Store interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// APIKey is the service credential. The zero value is unconfigured.
type APIKey struct {
	value string
}

// NewAPIKey returns a configured key, or an unconfigured one when value is
// blank after trimming.
func NewAPIKey(value string) APIKey {
	return APIKey{value: strings.TrimSpace(value)}
}

// Configured reports whether a key is present.
func (k APIKey) Configured() bool { return k.value != "" }

// Masked returns the first five characters followed by asterisks.
func (k APIKey) Masked() string { return Mask(k.value) }

// Verify compares candidate against the key. Both sides are trimmed and the
// comparison takes the same time for any candidate of a given length.
func (k APIKey) Verify(candidate string) error {
	if !k.Configured() {
		return ErrKeyNotConfigured
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ErrInvalidKey
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(k.value)) != 1 {
		return ErrInvalidKey
	}
	return nil
}

// LoadAPIKey performs the one-shot startup fetch. Failures are logged and
// produce an unconfigured key; they are never retried.
func LoadAPIKey(ctx context.Context, store Store, name string) APIKey {
	if store == nil {
		log.Error().Str("secret", name).Msg("[Secrets] no secret store configured")
		return APIKey{}
	}

	log.Info().Str("secret", name).Msg("[Secrets] retrieving API key")
	value, err := store.GetSecret(ctx, name)
	if err != nil {
		log.Error().Err(err).Str("secret", name).Msg("[Secrets] failed to fetch API key")
		return APIKey{}
	}

	key := NewAPIKey(value)
	if !key.Configured() {
		log.Error().Str("secret", name).Msg("[Secrets] API key is empty")
		return key
	}
	log.Info().Str("secret", name).Str("key", key.Masked()).Msg("[Secrets] API key retrieved")
	return key
}

// Mask hides all but the first five characters of s.
func Mask(s string) string {
	if len(s) <= 5 {
		return "****"
	}
	return s[:5] + "****"
}

// Options selects and configures a Store.
type Options struct {
	Provider        string // "azure", "gcp" or "env"
	KeyVaultName    string
	ProjectID       string
	CredentialsFile string
}

// NewStore builds the Store for opts.Provider.
func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch opts.Provider {
	case "azure", "":
		vault, err := NewAzureKeyVault(opts.KeyVaultName)
		if err != nil {
			return nil, err
		}
		return vault, nil
	case "gcp":
		sm, err := NewGCPSecretManager(ctx, opts.ProjectID, opts.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return sm, nil
	case "env":
		return EnvStore{}, nil
	default:
		return nil, fmt.Errorf("unknown secret provider %q", opts.Provider)
	}
}
