package secrets

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// AzureKeyVault reads secrets from an Azure Key Vault using the ambient
// credential chain (environment, workload identity, managed identity, az CLI).
type AzureKeyVault struct {
	client *azsecrets.Client
	url    string
}

// NewAzureKeyVault creates a client for https://<vaultName>.vault.azure.net.
func NewAzureKeyVault(vaultName string) (*AzureKeyVault, error) {
	if vaultName == "" {
		return nil, fmt.Errorf("key vault name is required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	url := VaultURL(vaultName)
	client, err := azsecrets.NewClient(url, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	return &AzureKeyVault{client: client, url: url}, nil
}

// VaultURL is the data-plane endpoint of an Azure Key Vault.
func VaultURL(vaultName string) string {
	return fmt.Sprintf("https://%s.vault.azure.net", vaultName)
}

// GetSecret returns the latest version of the named secret.
func (v *AzureKeyVault) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := v.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("get secret %s from %s: %w", name, v.url, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret %s has no value", name)
	}
	return *resp.Value, nil
}
