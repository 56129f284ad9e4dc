// Package minio uploads run artifacts (docking poses, the rendered
// dashboard, the exported results table) to an S3-compatible object store.
// The stage is optional and configured under export.pose_store.
package minio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/MolVista/internal/config"
	"github.com/turtacn/MolVista/internal/infrastructure/logging"
	"github.com/turtacn/MolVista/pkg/errors"
)

// API is the subset of the minio client the store uses; tests swap in a
// fake.
type API interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ArtifactStore uploads files under a per-run prefix.
type ArtifactStore struct {
	client API
	cfg    config.PoseStoreConfig
	log    logging.Logger
	prefix string
}

// New connects to the configured endpoint and makes sure the bucket
// exists.  The run prefix combines the configured prefix with a timestamp
// so repeated runs never overwrite each other.
func New(ctx context.Context, cfg config.PoseStoreConfig, log logging.Logger) (*ArtifactStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "cannot create object store client").
			WithDetail("endpoint=" + cfg.Endpoint)
	}
	return newWithClient(ctx, client, cfg, log)
}

func newWithClient(ctx context.Context, client API, cfg config.PoseStoreConfig, log logging.Logger) (*ArtifactStore, error) {
	s := &ArtifactStore{
		client: client,
		cfg:    cfg,
		log:    log.Named("posestore"),
		prefix: path.Join(cfg.Prefix, time.Now().UTC().Format("20060102T150405Z")),
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	s.log.Info("object store ready",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.String("prefix", s.prefix))
	return s, nil
}

func (s *ArtifactStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "cannot check bucket").
			WithDetail("bucket=" + s.cfg.Bucket)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "cannot create bucket").
			WithDetail("bucket=" + s.cfg.Bucket)
	}
	s.log.Info("created bucket", logging.String("bucket", s.cfg.Bucket))
	return nil
}

// UploadFile streams a local file into the store and returns its object
// reference as bucket/key.
func (s *ArtifactStore) UploadFile(ctx context.Context, localPath, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "cannot open artifact for upload").
			WithDetail("path=" + localPath)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "cannot stat artifact").
			WithDetail("path=" + localPath)
	}

	key := path.Join(s.prefix, filepath.Base(localPath))
	if _, err := s.client.PutObject(ctx, s.cfg.Bucket, key, f, info.Size(),
		minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "artifact upload failed").
			WithDetail(fmt.Sprintf("bucket=%s key=%s", s.cfg.Bucket, key))
	}

	ref := s.cfg.Bucket + "/" + key
	s.log.Debug("uploaded artifact", logging.String("ref", ref), logging.Int("bytes", int(info.Size())))
	return ref, nil
}

// UploadPose uploads a docking pose file and returns its reference.
func (s *ArtifactStore) UploadPose(ctx context.Context, posePath string) (string, error) {
	return s.UploadFile(ctx, posePath, "chemical/x-pdbqt")
}
