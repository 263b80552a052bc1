package s3_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/benmeehan/trailprint/internal/mocks"
	"github.com/benmeehan/trailprint/pkg/s3"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2025, 7, 21, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "reports/phone-1/20250721T100000Z-abc.pdf", s3.ObjectKey("phone-1", at, "abc"))
}

func TestObjectStorage_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("existing bucket is left alone", func(t *testing.T) {
		conn := new(mocks.MockBucketClient)
		conn.On("BucketExists", ctx, "reports").Return(true, nil)

		err := s3.NewObjectStorage(conn, "reports", "us-east-1").EnsureBucket(ctx)

		assert.NoError(t, err)
		conn.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing bucket is created", func(t *testing.T) {
		conn := new(mocks.MockBucketClient)
		conn.On("BucketExists", ctx, "reports").Return(false, nil)
		conn.On("MakeBucket", ctx, "reports", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)

		err := s3.NewObjectStorage(conn, "reports", "us-east-1").EnsureBucket(ctx)

		assert.NoError(t, err)
		conn.AssertExpectations(t)
	})

	t.Run("lookup failure", func(t *testing.T) {
		conn := new(mocks.MockBucketClient)
		conn.On("BucketExists", ctx, "reports").Return(false, errors.New("denied"))

		err := s3.NewObjectStorage(conn, "reports", "").EnsureBucket(ctx)

		assert.ErrorContains(t, err, "denied")
	})
}

func TestObjectStorage_Archive(t *testing.T) {
	ctx := context.Background()
	doc := []byte("%PDF-1.3 test")
	keyPattern := regexp.MustCompile(`^reports/phone-1/\d{8}T\d{6}Z-[0-9a-f-]{36}\.pdf$`)

	conn := new(mocks.MockBucketClient)
	conn.On("PutObject", ctx, "reports", mock.MatchedBy(keyPattern.MatchString), mock.Anything, int64(len(doc)),
		minio.PutObjectOptions{ContentType: "application/pdf"}).Return(minio.UploadInfo{Size: int64(len(doc))}, nil)

	key, err := s3.NewObjectStorage(conn, "reports", "").Archive(ctx, "phone-1", doc)

	require.NoError(t, err)
	assert.Regexp(t, keyPattern, key)
	conn.AssertExpectations(t)
}

func TestObjectStorage_Archive_UploadError(t *testing.T) {
	ctx := context.Background()

	conn := new(mocks.MockBucketClient)
	conn.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection reset"))

	key, err := s3.NewObjectStorage(conn, "reports", "").Archive(ctx, "phone-1", []byte("x"))

	assert.Empty(t, key)
	assert.ErrorContains(t, err, "connection reset")
}
