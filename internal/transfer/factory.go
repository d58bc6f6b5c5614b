package transfer

import (
	"context"
	"fmt"

	"shoebox/internal/box"
	"shoebox/internal/config"
)

// NewTransferFromConfig creates a Transfer implementation based on the
// target config type.
func NewTransferFromConfig(ctx context.Context, cfg config.TargetConfig) (box.Transfer, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryTransfer(cfg.Name), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem target requires fs_root to be set")
		}
		return NewFileSystemTransfer(cfg.Name, cfg.FSRoot)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 target requires s3_bucket to be set")
		}
		return NewS3Transfer(ctx, cfg)
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("gcs target requires gcs_bucket to be set")
		}
		return NewGCSTransfer(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown target type: %s", cfg.Type)
	}
}
