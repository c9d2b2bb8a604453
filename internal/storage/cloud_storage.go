package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// CloudStorageClient stores blobs in a Google Cloud Storage bucket.
type CloudStorageClient struct {
	BucketName string
	Client     *storage.Client
}

// NewCloudStorageClient creates a client bound to one bucket. Credentials are
// resolved from the environment (application default credentials).
func NewCloudStorageClient(ctx context.Context, bucketName string) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud storage client: %w", err)
	}
	return &CloudStorageClient{
		BucketName: bucketName,
		Client:     client,
	}, nil
}

// Upload writes the blob under objectName, replacing any existing object.
func (c *CloudStorageClient) Upload(ctx context.Context, objectName string, data io.Reader) error {
	obj := c.Client.Bucket(c.BucketName).Object(objectName)
	wc := obj.NewWriter(ctx)
	if _, err := io.Copy(wc, data); err != nil {
		return fmt.Errorf("failed to write data to object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close object writer: %w", err)
	}
	return nil
}

// Download opens the blob for reading and reports its size when known.
func (c *CloudStorageClient) Download(ctx context.Context, objectName string) (io.ReadCloser, int64, error) {
	obj := c.Client.Bucket(c.BucketName).Object(objectName)
	rc, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("failed to open object reader: %w", err)
	}
	return rc, rc.Attrs.Size, nil
}

// Delete removes the blob. Deleting a missing object reports ErrObjectNotFound.
func (c *CloudStorageClient) Delete(ctx context.Context, objectName string) error {
	err := c.Client.Bucket(c.BucketName).Object(objectName).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrObjectNotFound
	}
	return err
}

// Close releases the underlying client.
func (c *CloudStorageClient) Close() error {
	return c.Client.Close()
}
