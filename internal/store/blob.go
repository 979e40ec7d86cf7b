package store

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

// BlobSink uploads artifacts to an Azure Blob Storage container.
type BlobSink struct {
	client    *azblob.Client
	container string
	logger    *zap.Logger
}

// NewBlobSink creates the client from a connection string. No request is
// made until EnsureContainer or Put.
func NewBlobSink(connectionString, container string, logger *zap.Logger) (*BlobSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if container == "" {
		return nil, fmt.Errorf("container name required")
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &BlobSink{
		client:    client,
		container: container,
		logger:    logger.Named("store").With(zap.String("container", container)),
	}, nil
}

// EnsureContainer creates the container if it does not exist.
func (b *BlobSink) EnsureContainer(ctx context.Context) error {
	_, err := b.client.CreateContainer(ctx, b.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %s: %w", b.container, err)
	}
	b.logger.Debug("storage container ready")
	return nil
}

// Put streams r to the blob at key.
func (b *BlobSink) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}
	if _, err := b.client.UploadStream(ctx, b.container, key, r, opts); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}
	return nil
}

// Location returns container/key.
func (b *BlobSink) Location(key string) string {
	return b.container + "/" + key
}
