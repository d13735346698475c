package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/studyvault/notesdash/internal/config"
	"github.com/studyvault/notesdash/internal/http"
)

// envAzureSAS holds the SAS token for the configured storage account.
const envAzureSAS = "NOTESDASH_AZURE_SAS"

// azureUploadAPI is the subset of *azblob.Client the saver needs.
type azureUploadAPI interface {
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// AzureSaver uploads files to a blob container.
type AzureSaver struct {
	client    azureUploadAPI
	container string
	prefix    string
}

// NewAzureSaver creates a blob client from the configured account URL and
// the SAS token in NOTESDASH_AZURE_SAS.
func NewAzureSaver(t Target, cfg *config.Config) (*AzureSaver, error) {
	if cfg == nil || cfg.AzureAccountURL == "" {
		return nil, errors.New("azure_account_url is not configured")
	}
	sas := strings.TrimPrefix(os.Getenv(envAzureSAS), "?")
	if sas == "" {
		return nil, fmt.Errorf("%s is not set", envAzureSAS)
	}

	httpClient, err := http.NewTransferClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	// Account URL only, no container in the path
	sasURL := strings.TrimRight(cfg.AzureAccountURL, "/") + "/?" + sas

	client, err := azblob.NewClientWithNoCredential(sasURL, &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Transport: httpClient,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	return &AzureSaver{client: client, container: t.Root, prefix: t.Prefix}, nil
}

// Save uploads data as a block blob at prefix/name.
func (a *AzureSaver) Save(ctx context.Context, name string, data []byte) (string, error) {
	blobName := objectKey(a.prefix, name)
	if _, err := a.client.UploadBuffer(ctx, a.container, blobName, data, nil); err != nil {
		return "", fmt.Errorf("failed to upload to az://%s/%s: %w", a.container, blobName, err)
	}
	return "az://" + a.container + "/" + blobName, nil
}

func (a *AzureSaver) String() string {
	return "az://" + a.container + "/" + a.prefix
}
