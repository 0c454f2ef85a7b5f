package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrBucketCreationFailed = fmt.Errorf("failed to create storage bucket")

// S3Backend stores uploads in an S3-compatible object store. Connect
// and request timeouts are bounded so a slow provider cannot hang a
// request.
type S3Backend struct {
	client         *minio.Client
	bucket         string
	requestTimeout time.Duration
	allowed        map[string]struct{}
	initOnce       sync.Once
	initErr        error
}

type S3Options struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Region         string
	Bucket         string
	UseSSL         bool
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

func NewS3Backend(opts S3Options, allowedContentTypes map[string]struct{}) (*S3Backend, error) {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: opts.ConnectTimeout}).DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.RequestTimeout,
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Region:    opts.Region,
		Secure:    opts.UseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &S3Backend{
		client:         client,
		bucket:         opts.Bucket,
		requestTimeout: opts.RequestTimeout,
		allowed:        allowedContentTypes,
	}, nil
}

func (b *S3Backend) Name() string { return "s3" }

// lazyInit ensures the bucket exists on first use, not at startup.
func (b *S3Backend) lazyInit(ctx context.Context) error {
	b.initOnce.Do(func() {
		exists, err := b.client.BucketExists(ctx, b.bucket)
		if err != nil {
			b.initErr = fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
			return
		}
		if !exists {
			if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
				b.initErr = fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
			}
		}
	})
	return b.initErr
}

func (b *S3Backend) Store(ctx context.Context, content io.Reader, size int64, originalName, directory string) (*StoredFile, error) {
	contentType, reader, err := sniffContentType(content, b.allowed)
	if err != nil {
		return nil, err
	}

	if err := b.lazyInit(ctx); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s-%d%s", randomHex(5), time.Now().Unix(), contentTypeToExtension(contentType))
	key := strings.Trim(directory, "/") + "/" + name

	putCtx, cancel := context.WithTimeout(ctx, b.requestTimeout)
	defer cancel()

	_, err = b.client.PutObject(putCtx, b.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"Original-Name": originalName,
			"Uploaded-At":   time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return &StoredFile{Name: name, URL: b.objectURL(key), Key: key}, nil
}

func (b *S3Backend) Remove(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	rmCtx, cancel := context.WithTimeout(ctx, b.requestTimeout)
	defer cancel()
	if err := b.client.RemoveObject(rmCtx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoveFailed, err)
	}
	return nil
}

func (b *S3Backend) objectURL(key string) string {
	endpoint := b.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", endpoint.Scheme, endpoint.Host, b.bucket, key)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// timestamp-only name rather than aborting the upload.
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
