package services

import (
  "context"
  "fmt"
  "io"
  "os"

  "cloud.google.com/go/storage"
  "google.golang.org/api/option"
  "gorm.io/gorm"

  "github.com/castly-org/castly-backend/internal/logger"
)

type BucketService interface {
  UploadFile(ctx context.Context, tx *gorm.DB, bucketKey string, body io.Reader) error
  GetPublicURL(bucketKey string) string
}

type bucketService struct {
  log           *logger.Logger
  client        *storage.Client
  bucketName    string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
  serviceLog := log.With("service", "BucketService")
  bucketName := os.Getenv("GCS_BUCKET_NAME")
  if bucketName == "" {
    return nil, fmt.Errorf("missing GCS_BUCKET_NAME environment variable")
  }
  var opts []option.ClientOption
  if credsFile := os.Getenv("GCS_CREDENTIALS_FILE"); credsFile != "" {
    serviceLog.Info("Using GCS credentials file", "path", credsFile)
    opts = append(opts, option.WithCredentialsFile(credsFile))
  }
  client, err := storage.NewClient(context.Background(), opts...)
  if err != nil {
    return nil, fmt.Errorf("failed to create GCS client: %w", err)
  }
  return &bucketService{
    log:        serviceLog,
    client:     client,
    bucketName: bucketName,
  }, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, tx *gorm.DB, bucketKey string, body io.Reader) error {
  w := bs.client.Bucket(bs.bucketName).Object(bucketKey).NewWriter(ctx)
  w.ContentType = "image/png"
  if _, err := io.Copy(w, body); err != nil {
    bs.log.Warn("failed to write object to bucket", "bucketKey", bucketKey, "error", err)
    _ = w.Close()
    return fmt.Errorf("failed to write object %q: %w", bucketKey, err)
  }
  if err := w.Close(); err != nil {
    bs.log.Warn("failed to finalize object upload", "bucketKey", bucketKey, "error", err)
    return fmt.Errorf("failed to finalize object %q: %w", bucketKey, err)
  }
  bs.log.Info("Uploaded object to bucket", "bucketKey", bucketKey)
  return nil
}

func (bs *bucketService) GetPublicURL(bucketKey string) string {
  return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, bucketKey)
}
