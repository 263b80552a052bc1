package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	pdfContentType = "application/pdf"
	keyTimeLayout  = "20060102T150405Z"
)

// Archiver stores a generated report and returns its object key.
type Archiver interface {
	Archive(ctx context.Context, deviceID string, doc []byte) (string, error)
}

// BucketClient is the subset of *minio.Client the archive needs.
type BucketClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectStorage archives PDFs into a single bucket.
type ObjectStorage struct {
	Conn   BucketClient
	bucket string
	region string
	now    func() time.Time
}

// Connect creates the minio client and ensures the bucket exists.
func Connect(ctx context.Context, endpoint, accessKeyID, secretAccessKey string, useSSL bool, bucket, region string) (*ObjectStorage, error) {
	conn, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	o := NewObjectStorage(conn, bucket, region)
	if err := o.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// NewObjectStorage wraps an existing bucket client.
func NewObjectStorage(conn BucketClient, bucket, region string) *ObjectStorage {
	return &ObjectStorage{
		Conn:   conn,
		bucket: bucket,
		region: region,
		now:    time.Now,
	}
}

// EnsureBucket creates the bucket unless it already exists.
func (o *ObjectStorage) EnsureBucket(ctx context.Context) error {
	exists, err := o.Conn.BucketExists(ctx, o.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", o.bucket, err)
	}
	if exists {
		return nil
	}

	if err := o.Conn.MakeBucket(ctx, o.bucket, minio.MakeBucketOptions{Region: o.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", o.bucket, err)
	}
	return nil
}

// Archive uploads doc under reports/<deviceID>/<timestamp>-<uuid>.pdf.
func (o *ObjectStorage) Archive(ctx context.Context, deviceID string, doc []byte) (string, error) {
	key := ObjectKey(deviceID, o.now(), uuid.NewString())

	_, err := o.Conn.PutObject(ctx, o.bucket, key, bytes.NewReader(doc), int64(len(doc)), minio.PutObjectOptions{
		ContentType: pdfContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// ObjectKey builds the archive key for a report.
func ObjectKey(deviceID string, at time.Time, id string) string {
	return fmt.Sprintf("reports/%s/%s-%s.pdf", deviceID, at.UTC().Format(keyTimeLayout), id)
}
