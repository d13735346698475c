// Package storage saves downloaded notes to their destination: a local
// directory, an S3 bucket (s3://bucket/prefix) or an Azure Blob container
// (az://container/prefix).
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/studyvault/notesdash/internal/config"
	"github.com/studyvault/notesdash/internal/util/sanitize"
)

// ErrUnsupportedScheme is returned for download targets with an unknown URL scheme.
var ErrUnsupportedScheme = errors.New("unsupported download target scheme")

// Saver writes a downloaded file and reports where it ended up.
type Saver interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	String() string
}

// Target is a parsed download destination.
type Target struct {
	Scheme string // "", "s3" or "az"
	Root   string // directory, bucket or container
	Prefix string // key prefix inside the bucket/container
}

// ParseTarget splits a download target into scheme, root and prefix.
// Anything without "://" is a local directory.
func ParseTarget(target string) (Target, error) {
	if target == "" {
		target = "."
	}
	if !strings.Contains(target, "://") {
		return Target{Root: target}, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return Target{}, fmt.Errorf("invalid download target %q: %w", target, err)
	}
	switch u.Scheme {
	case "s3", "az":
	default:
		return Target{}, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("download target %q has no bucket or container", target)
	}
	return Target{
		Scheme: u.Scheme,
		Root:   u.Host,
		Prefix: strings.Trim(u.Path, "/"),
	}, nil
}

// NewSaver builds the Saver for target. Object-store savers reuse the proxy
// settings in cfg.
func NewSaver(ctx context.Context, target string, cfg *config.Config) (Saver, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	switch t.Scheme {
	case "s3":
		return NewS3Saver(ctx, t, cfg)
	case "az":
		return NewAzureSaver(t, cfg)
	default:
		return NewLocalSaver(t.Root), nil
	}
}

// objectKey joins prefix and a sanitized file name with "/".
func objectKey(prefix, name string) string {
	name = sanitize.FileName(name)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
