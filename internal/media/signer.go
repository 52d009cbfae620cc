// Package media turns stored lesson video locations into playable URLs.
package media

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Signer resolves a stored video location to a URL the client can play.
type Signer interface {
	SignedURL(location string) (string, error)
}

// ParseS3 splits "s3://bucket/key" into its parts.  ok is false for any
// other scheme.
func ParseS3(location string) (bucket, key string, ok bool) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", false
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", false
	}
	return u.Host, key, true
}

// S3Signer presigns GET requests for s3:// locations and passes every
// other URL through unchanged.  It works with AWS S3 and S3-compatible
// stores such as DigitalOcean Spaces or MinIO through Endpoint.
type S3Signer struct {
	client *s3.S3
	ttl    time.Duration
}

// S3Config configures an S3Signer.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	TTL       time.Duration
}

func NewS3Signer(cfg S3Config) (*S3Signer, error) {
	awsCfg := &aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Signer{client: s3.New(sess), ttl: ttl}, nil
}

func (s *S3Signer) SignedURL(location string) (string, error) {
	bucket, key, ok := ParseS3(location)
	if !ok {
		return location, nil
	}
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	signed, err := req.Presign(s.ttl)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", location, err)
	}
	return signed, nil
}

// Passthrough returns stored URLs as is.  It is used when no object store
// credentials are configured; s3:// locations are rejected.
type Passthrough struct{}

func (Passthrough) SignedURL(location string) (string, error) {
	if _, _, ok := ParseS3(location); ok {
		return "", fmt.Errorf("no object store configured for %s", location)
	}
	return location, nil
}
