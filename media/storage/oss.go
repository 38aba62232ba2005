package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	apperrors "github.com/leeforge/compact/errors"
)

// Mirror copies a finished output to a remote store.
type Mirror interface {
	Upload(ctx context.Context, file io.Reader, key string) (string, error)
	Name() string
}

// OSSConfig configures the Aliyun OSS mirror. The mirror is disabled when
// Bucket is empty.
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint" validate:"required_with=Bucket"`
	AccessKeyID     string `mapstructure:"access-key-id" json:"-" yaml:"access-key-id"`
	AccessKeySecret string `mapstructure:"access-key-secret" json:"-" yaml:"access-key-secret"`
	Bucket          string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	Prefix          string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
	// Domain is a custom or CDN domain used when building object URLs.
	Domain string `mapstructure:"domain" json:"domain" yaml:"domain"`
}

// Enabled reports whether a bucket is configured.
func (c OSSConfig) Enabled() bool {
	return c.Bucket != ""
}

type objectPutter interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
}

// OSSProvider mirrors outputs into an Aliyun OSS bucket.
type OSSProvider struct {
	bucket objectPutter
	prefix string
	domain string
}

// NewOSSProvider creates an OSS mirror.
// Endpoint: oss-cn-hangzhou.aliyuncs.com
func NewOSSProvider(cfg OSSConfig) (*OSSProvider, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", cfg.Bucket, err)
	}

	return newOSSProvider(bucket, cfg), nil
}

func newOSSProvider(bucket objectPutter, cfg OSSConfig) *OSSProvider {
	domain := cfg.Domain
	if domain == "" {
		domain = fmt.Sprintf("https://%s.%s", cfg.Bucket, cfg.Endpoint)
	} else if !strings.HasPrefix(domain, "http") {
		domain = "https://" + domain
	}

	return &OSSProvider{
		bucket: bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		domain: strings.TrimSuffix(domain, "/"),
	}
}

// Key returns the object key for name under the configured prefix.
func (p *OSSProvider) Key(name string) string {
	return strings.TrimPrefix(path.Join(p.prefix, name), "/")
}

// Upload puts file under Key(key) and returns its public URL.
func (p *OSSProvider) Upload(ctx context.Context, file io.Reader, key string) (string, error) {
	objectKey := p.Key(key)

	if err := p.bucket.PutObject(objectKey, file, oss.WithContext(ctx)); err != nil {
		return "", apperrors.NewMirror(objectKey, err)
	}

	return fmt.Sprintf("%s/%s", p.domain, objectKey), nil
}

func (p *OSSProvider) Name() string {
	return "oss"
}
