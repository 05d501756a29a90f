// Package storage archives uploaded chart screenshots to Azure Blob
// Storage. Archiving is best-effort and entirely outside the analysis
// path; a failed upload never affects the response.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"go-chart-analyzer/internal/payload"
)

// ScreenshotArchive stores uploaded chart images.
type ScreenshotArchive interface {
	Archive(ctx context.Context, id string, img payload.Payload) error
}

type azureArchive struct {
	client    *azblob.Client
	container string
}

// NewAzureArchive creates an archive backed by an Azure storage account.
func NewAzureArchive(accountName, accountKey, container string) (ScreenshotArchive, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureArchive{client: client, container: container}, nil
}

func (a *azureArchive) Archive(ctx context.Context, id string, img payload.Payload) error {
	blobName := fmt.Sprintf("%s/%s%s", time.Now().UTC().Format("2006-01-02"), id, extensionFor(img.MIME))
	_, err := a.client.UploadBuffer(ctx, a.container, blobName, img.Data, nil)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}

func extensionFor(mime string) string {
	switch {
	case strings.Contains(mime, "png"):
		return ".png"
	case strings.Contains(mime, "jpeg"), strings.Contains(mime, "jpg"):
		return ".jpg"
	case strings.Contains(mime, "webp"):
		return ".webp"
	default:
		return ".img"
	}
}

// NoopArchive is used when no storage account is configured.
type NoopArchive struct{}

func (NoopArchive) Archive(context.Context, string, payload.Payload) error { return nil }
