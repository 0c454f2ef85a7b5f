package integration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/photoshare/photoshare-api/internal/storage"
)

func jpegFixtureBytes() []byte {
	return append([]byte{
		0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46,
		0x49, 0x46, 0x00, 0x01, 0x01, 0x00, 0x00, 0x01,
		0x00, 0x01, 0x00, 0x00,
	}, bytes.Repeat([]byte{0x11}, 1024)...)
}

func pngFixtureBytes() []byte {
	return append([]byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01,
	}, bytes.Repeat([]byte{0x22}, 1024)...)
}

func TestS3BackendStoresPhotoWithMetadata(t *testing.T) {
	env := newMinIOIntegrationEnv(t)
	content := jpegFixtureBytes()

	stored, err := env.backend.Store(context.Background(), bytes.NewReader(content), int64(len(content)), "holiday.jpg", "photos")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !strings.HasPrefix(stored.Key, "photos/") || !strings.HasSuffix(stored.Key, ".jpg") {
		t.Fatalf("unexpected object key: %q", stored.Key)
	}
	if !strings.Contains(stored.URL, env.bucket+"/"+stored.Key) {
		t.Fatalf("url does not reference object: %q", stored.URL)
	}

	obj := env.mustStatObject(t, stored.Key)
	if obj.ContentType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", obj.ContentType)
	}
	if obj.Size != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), obj.Size)
	}
	assertMetadataContains(t, obj.UserMetadata, "original-name", "holiday.jpg")
	assertMetadataIsTimestamp(t, obj.UserMetadata, "uploaded-at")

	reader, err := env.client.GetObject(context.Background(), env.bucket, stored.Key, minio.GetObjectOptions{})
	if err != nil {
		t.Fatalf("get object: %v", err)
	}
	defer reader.Close()
	roundTripped, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if !bytes.Equal(roundTripped, content) {
		t.Fatal("stored content differs from upload")
	}
}

func TestS3BackendStoreAndRemove(t *testing.T) {
	env := newMinIOIntegrationEnv(t)
	content := pngFixtureBytes()

	stored, err := env.backend.Store(context.Background(), bytes.NewReader(content), int64(len(content)), "profile.png", "avatars")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !strings.HasSuffix(stored.Key, ".png") {
		t.Fatalf("expected png suffix, got %q", stored.Key)
	}
	if !env.objectExists(t, stored.Key) {
		t.Fatalf("object missing after store: %q", stored.Key)
	}

	if err := env.backend.Remove(context.Background(), stored.Key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if env.objectExists(t, stored.Key) {
		t.Fatalf("object still present after remove: %q", stored.Key)
	}

	// Removing an already-removed key is not an error.
	if err := env.backend.Remove(context.Background(), stored.Key); err != nil {
		t.Fatalf("repeat remove: %v", err)
	}
}

func TestS3BackendRejectsSpoofedContent(t *testing.T) {
	env := newMinIOIntegrationEnv(t)
	content := []byte("this is not an image")

	_, err := env.backend.Store(context.Background(), bytes.NewReader(content), int64(len(content)), "spoofed.jpg", "photos")
	if !errors.Is(err, storage.ErrInvalidFileType) {
		t.Fatalf("expected invalid file type, got %v", err)
	}
}

func TestS3BackendGeneratesUniqueKeys(t *testing.T) {
	env := newMinIOIntegrationEnv(t)
	content := jpegFixtureBytes()

	seen := map[string]struct{}{}
	for range 5 {
		stored, err := env.backend.Store(context.Background(), bytes.NewReader(content), int64(len(content)), "same-name.jpg", "photos")
		if err != nil {
			t.Fatalf("store: %v", err)
		}
		if _, dup := seen[stored.Key]; dup {
			t.Fatalf("duplicate key generated: %q", stored.Key)
		}
		seen[stored.Key] = struct{}{}
	}
}

func TestS3BackendUnreachableEndpoint(t *testing.T) {
	backend, err := storage.NewS3Backend(storage.S3Options{
		Endpoint:       "127.0.0.1:1",
		AccessKey:      "minioadmin",
		SecretKey:      "minioadmin",
		Region:         "us-east-1",
		Bucket:         "photos-test",
		UseSSL:         false,
		ConnectTimeout: time.Second,
		RequestTimeout: 2 * time.Second,
	}, allowedImageTypes)
	if err != nil {
		t.Fatalf("create backend: %v", err)
	}

	content := jpegFixtureBytes()
	_, err = backend.Store(context.Background(), bytes.NewReader(content), int64(len(content)), "holiday.jpg", "photos")
	if !errors.Is(err, storage.ErrBucketCreationFailed) {
		t.Fatalf("expected bucket init failure, got %v", err)
	}
}

func assertMetadataContains(t *testing.T, metadata map[string]string, partialKey, expectedValue string) {
	t.Helper()
	for key, value := range metadata {
		if strings.Contains(strings.ToLower(key), partialKey) && value == expectedValue {
			return
		}
	}
	t.Fatalf("expected metadata key containing %q with value %q, got %#v", partialKey, expectedValue, metadata)
}

func assertMetadataIsTimestamp(t *testing.T, metadata map[string]string, partialKey string) {
	t.Helper()
	for key, value := range metadata {
		if strings.Contains(strings.ToLower(key), partialKey) && strings.TrimSpace(value) != "" {
			if _, err := time.Parse(time.RFC3339, value); err == nil {
				return
			}
		}
	}
	t.Fatalf("expected metadata key containing %q with RFC3339 value, got %#v", partialKey, metadata)
}
