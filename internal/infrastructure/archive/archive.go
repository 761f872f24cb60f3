// Package archive stores generated digest drafts for manual review.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/config"
	"AINewsAgent/internal/ports"
)

// New selects the configured backend.
func New(ctx context.Context, cfg config.ArchiveConfig) (ports.DraftArchive, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		return NewLocalArchive(cfg.Dir), nil
	case "gcs":
		return NewCloudStorageArchive(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

// LocalArchive writes drafts under a directory.
type LocalArchive struct {
	dir string
}

var _ ports.DraftArchive = (*LocalArchive)(nil)

func NewLocalArchive(dir string) *LocalArchive {
	if dir == "" {
		dir = "drafts"
	}
	return &LocalArchive{dir: dir}
}

func (a *LocalArchive) Save(_ context.Context, name string, content []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", apperr.NewStorage("create archive dir", err)
	}
	path := filepath.Join(a.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", apperr.NewStorage("write draft", err)
	}
	return path, nil
}

// CloudStorageArchive writes drafts as objects in a GCS bucket.
type CloudStorageArchive struct {
	client     *storage.Client
	bucketName string
	prefix     string
}

var _ ports.DraftArchive = (*CloudStorageArchive)(nil)

// NewCloudStorageArchive uses an explicit credentials file when configured and
// application default credentials otherwise.
func NewCloudStorageArchive(ctx context.Context, cfg config.ArchiveConfig) (*CloudStorageArchive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs archive requires a bucket")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &CloudStorageArchive{client: client, bucketName: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (a *CloudStorageArchive) Save(ctx context.Context, name string, content []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	objectName := a.objectName(name)

	w := a.client.Bucket(a.bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/markdown; charset=utf-8"
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return "", apperr.NewStorage("write draft object", err)
	}
	if err := w.Close(); err != nil {
		return "", apperr.NewStorage("close draft object", err)
	}
	return fmt.Sprintf("gs://%s/%s", a.bucketName, objectName), nil
}

func (a *CloudStorageArchive) objectName(name string) string {
	return a.prefix + name
}

// Close releases the storage client.
func (a *CloudStorageArchive) Close() error {
	return a.client.Close()
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return apperr.NewMalformed(fmt.Sprintf("invalid draft name %q", name))
	}
	return nil
}
