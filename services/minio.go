package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

const (
	MINIO_SVC = "minio_svc"

	defaultPresignTTL = 5 * time.Minute
)

// MinIOService holds shared file blobs and hands out short-lived presigned
// links once a download token has been redeemed.
type MinIOService struct {
	appContext.DefaultService
	client     *minio.Client
	bucketName string
	endpoint   string
	accessKey  string
	secretKey  string
	useSSL     bool
	presignTTL time.Duration
}

func (svc MinIOService) Id() string {
	return MINIO_SVC
}

func (svc *MinIOService) Configure(ctx *appContext.Context) error {
	svc.endpoint = envString("MINIO_ENDPOINT", "localhost:9000")
	svc.accessKey = envString("MINIO_ACCESS_KEY", "admin")
	svc.secretKey = envString("MINIO_SECRET_KEY", "password123")
	svc.useSSL = envBool("MINIO_USE_SSL", false)
	svc.bucketName = envString("MINIO_BUCKET_NAME", "sharegate")
	svc.presignTTL = clampDuration(envDuration("DOWNLOAD_URL_TTL", defaultPresignTTL), 10*time.Second, time.Hour)

	return svc.DefaultService.Configure(ctx)
}

func (svc *MinIOService) Start() error {
	client, err := minio.New(svc.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(svc.accessKey, svc.secretKey, ""),
		Secure: svc.useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	svc.client = client

	if err := svc.ensureBucket(); err != nil {
		return fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	log.WithFields(log.Fields{"endpoint": svc.endpoint, "bucket": svc.bucketName}).Info("MinIO service started")
	return nil
}

func (svc *MinIOService) ensureBucket() error {
	ctx := context.Background()

	exists, err := svc.client.BucketExists(ctx, svc.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = svc.client.MakeBucket(ctx, svc.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		log.WithField("bucket", svc.bucketName).Info("Created MinIO bucket")
	}

	return nil
}

func (svc *MinIOService) PresignTTL() time.Duration {
	return svc.presignTTL
}

// PresignGet returns a GET link for objectKey that saves as fileName.
func (svc *MinIOService) PresignGet(ctx context.Context, objectKey, fileName string) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	presignedURL, err := svc.client.PresignedGetObject(ctx, svc.bucketName, objectKey, svc.presignTTL, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presignedURL.String(), nil
}
