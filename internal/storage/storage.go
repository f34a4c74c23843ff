// Package storage talks to the Supabase storage buckets through their
// S3-compatible endpoint.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const maxPresignTTL = 7 * 24 * time.Hour

var ErrEmptyKey = errors.New("storage: object key is required")

// Config describes the S3 endpoint. PublicBaseURL is the prefix of public
// object URLs, e.g. https://<project>.supabase.co/storage/v1/object/public.
type Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicBaseURL   string `yaml:"public_base_url"`
}

// Enabled reports whether enough is configured to build a client.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type Client struct {
	s3         s3iface.S3API
	publicBase string
}

// New builds a client with static credentials and path-style addressing.
func New(cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("storage: endpoint and credentials are required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(cfg.Endpoint),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("storage session: %w", err)
	}
	return NewWithAPI(s3.New(sess), cfg.PublicBaseURL), nil
}

// NewWithAPI wraps an existing S3 API implementation.
func NewWithAPI(api s3iface.S3API, publicBaseURL string) *Client {
	return &Client{s3: api, publicBase: strings.TrimRight(publicBaseURL, "/")}
}

// Upload stores body under bucket/key and returns its public URL.
func (c *Client) Upload(ctx context.Context, bucket, key string, body io.ReadSeeker, contentType string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", ErrEmptyKey
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload %s/%s: %w", bucket, key, err)
	}
	return c.PublicURL(bucket, key), nil
}

// PresignGet returns a time-limited download URL for a private object.
func (c *Client) PresignGet(bucket, key string, ttl time.Duration) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", ErrEmptyKey
	}
	if ttl <= 0 || ttl > maxPresignTTL {
		ttl = time.Hour
	}
	req, _ := c.s3.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	u, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, key, err)
	}
	return u, nil
}

// PublicURL is the URL of an object in a public bucket.
func (c *Client) PublicURL(bucket, key string) string {
	parts := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.publicBase + "/" + url.PathEscape(bucket) + "/" + strings.Join(parts, "/")
}

// Bucket binds the client to one bucket.
func (c *Client) Bucket(name string) *Bucket {
	return &Bucket{client: c, name: name}
}

type Bucket struct {
	client *Client
	name   string
}

func (b *Bucket) Upload(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error) {
	return b.client.Upload(ctx, b.name, key, body, contentType)
}

func (b *Bucket) PresignGet(key string, ttl time.Duration) (string, error) {
	return b.client.PresignGet(b.name, key, ttl)
}
