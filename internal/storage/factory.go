package storage

import (
	"context"

	"vfs-go/internal/config"
	"vfs-go/internal/vfs"
)

// NewBackendFromConfig creates a StorageBackend based on the storage config type.
// Missing settings fail fast; there is no fallback to another backend.
func NewBackendFromConfig(ctx context.Context, cfg config.StorageConfig) (vfs.StorageBackend, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryBackend(cfg.FSPublicURL), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, vfs.NewError(vfs.KindConfiguration, "filesystem storage requires fs_root to be set")
		}
		b, err := NewFilesystemBackend(cfg.FSRoot, cfg.FSPublicURL)
		if err != nil {
			return nil, vfs.WrapError(vfs.KindConfiguration, err, "filesystem storage")
		}
		return b, nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, vfs.NewError(vfs.KindConfiguration, "s3 storage requires s3_bucket to be set")
		}
		if cfg.S3Region == "" {
			return nil, vfs.NewError(vfs.KindConfiguration, "s3 storage requires s3_region to be set")
		}
		if (cfg.S3AccessKey == "") != (cfg.S3SecretKey == "") {
			return nil, vfs.NewError(vfs.KindConfiguration, "s3 storage requires both s3_access_key and s3_secret_key")
		}
		b, err := NewS3Backend(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
			PublicURL: cfg.S3PublicURL,
			ACL:       cfg.S3ACL,
		})
		if err != nil {
			return nil, vfs.WrapError(vfs.KindConfiguration, err, "s3 storage")
		}
		return b, nil
	default:
		return nil, vfs.NewError(vfs.KindConfiguration, "unknown storage type: %q", cfg.Type)
	}
}
