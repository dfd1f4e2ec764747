package snapshots

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ARBAZ1233678/CollabSpace/internal/config"
)

// Archive stores one immutable object per accepted document version under
// "docs/<documentID>/v<version>". It exists so a caller who lost a version
// conflict can fetch what it was diffing against; it is not an audit log.
type Archive struct {
	client *minio.Client
	bucket string
}

// NewArchive creates a MinIO-backed archive and ensures the bucket exists.
func NewArchive(cfg *config.MinIOConfig) (*Archive, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	a := &Archive{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, a.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return a, nil
}

func objectKey(documentID string, version int64) string {
	return fmt.Sprintf("docs/%s/v%d", documentID, version)
}

// Put archives the content of one accepted version.
func (a *Archive) Put(ctx context.Context, documentID string, version int64, content string) error {
	r := strings.NewReader(content)
	_, err := a.client.PutObject(ctx, a.bucket, objectKey(documentID, version), r, int64(len(content)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	return err
}

// Get returns the archived content of one version.
func (a *Archive) Get(ctx context.Context, documentID string, version int64) (string, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, objectKey(documentID, version), minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()
	b, err := io.ReadAll(obj)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
