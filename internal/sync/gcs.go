package sync

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// contentTypeJSONL is the media type of exported snapshots.
const contentTypeJSONL = "application/x-ndjson"

// GCSDestination writes ledger snapshots to a Google Cloud Storage object.
type GCSDestination struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCSDestination creates a GCS destination using application default
// credentials.
func NewGCSDestination(ctx context.Context, bucket, object string) (*GCSDestination, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSDestination{client: client, bucket: bucket, object: object}, nil
}

// Name implements Destination.
func (d *GCSDestination) Name() string { return "gs://" + d.bucket + "/" + d.object }

// Write replaces the object with data.
func (d *GCSDestination) Write(ctx context.Context, data []byte) error {
	w := d.client.Bucket(d.bucket).Object(d.object).NewWriter(ctx)
	w.ContentType = contentTypeJSONL

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (d *GCSDestination) Close() error {
	return d.client.Close()
}
