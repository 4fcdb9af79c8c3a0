package secrets

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// GCPSecretManager reads secrets from Google Secret Manager.
type GCPSecretManager struct {
	client    *secretmanager.Client
	projectID string
}

// NewGCPSecretManager creates a client for projectID. Credentials come from
// credentialsFile when set, otherwise from Application Default Credentials.
func NewGCPSecretManager(ctx context.Context, projectID, credentialsFile string) (*GCPSecretManager, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project id is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &GCPSecretManager{client: client, projectID: projectID}, nil
}

// SecretVersionName is the resource name of the latest version of a secret.
func SecretVersionName(projectID, name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name)
}

// GetSecret returns the payload of the latest version of the named secret.
func (g *GCPSecretManager) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: SecretVersionName(g.projectID, name),
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

// Close releases the Secret Manager client.
func (g *GCPSecretManager) Close() error {
	return g.client.Close()
}
