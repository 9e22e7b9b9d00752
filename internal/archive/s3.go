// Package archive uploads finished reports to S3-compatible storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures the report archive
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// objectClient is the subset of *minio.Client the archive uses
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Archiver is a domain.ReportArchiver storing reports under {run_id}/{name}
type S3Archiver struct {
	client   objectClient
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

var _ domain.ReportArchiver = (*S3Archiver)(nil)

// NewS3Archiver creates an archiver for the configured bucket
func NewS3Archiver(cfg S3Config) (*S3Archiver, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, domain.NewConfigError("archive endpoint is required", nil)
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, domain.NewConfigError("archive bucket is required", nil)
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	// empty keys sign anonymously
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, domain.NewStorageError("init s3 client", err)
	}
	return newS3Archiver(client, bucket, region), nil
}

func newS3Archiver(client objectClient, bucket, region string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, region: region}
}

func (a *S3Archiver) ensureBucket(ctx context.Context) error {
	a.initOnce.Do(func() {
		exists, err := a.client.BucketExists(ctx, a.bucket)
		if err != nil {
			a.initErr = err
			return
		}
		if exists {
			return
		}
		a.initErr = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region})
	})
	return a.initErr
}

// Archive uploads content and returns its s3:// location
func (a *S3Archiver) Archive(ctx context.Context, runID, name string, content []byte) (string, error) {
	runID = strings.TrimSpace(runID)
	name = strings.TrimSpace(name)
	if runID == "" {
		return "", domain.NewValidationError("run id is required")
	}
	if name == "" {
		return "", domain.NewValidationError("report name is required")
	}
	if err := a.ensureBucket(ctx); err != nil {
		return "", domain.NewStorageError(fmt.Sprintf("ensure bucket %s", a.bucket), err)
	}
	if content == nil {
		content = []byte{}
	}

	key := objectKey(runID, name)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return "", domain.NewStorageError(fmt.Sprintf("upload %s", key), err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}

func objectKey(runID, name string) string {
	return runID + "/" + strings.TrimLeft(path.Base(name), "/")
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".csv":
		return "text/csv"
	default:
		return "text/plain; charset=utf-8"
	}
}
