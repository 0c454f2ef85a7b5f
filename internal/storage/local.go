package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// LocalBackend writes uploads to the local filesystem under a configured
// root and serves them from a public base URL.
type LocalBackend struct {
	root    string
	baseURL string
	allowed map[string]struct{}
}

func NewLocalBackend(root, publicBaseURL string, allowedContentTypes map[string]struct{}) *LocalBackend {
	return &LocalBackend{
		root:    root,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		allowed: allowedContentTypes,
	}
}

func (b *LocalBackend) Name() string { return "local" }

// Store writes the file under root/directory with a collision-resistant
// name: slugified original base name, a uniqueness suffix, and the
// extension matching the detected content type.
func (b *LocalBackend) Store(ctx context.Context, content io.Reader, size int64, originalName, directory string) (*StoredFile, error) {
	contentType, reader, err := sniffContentType(content, b.allowed)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s-%s%s", slugify(baseName(originalName)), uuid.New().String(), contentTypeToExtension(contentType))
	dir := filepath.Join(b.root, directory)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create directory: %v", ErrUploadFailed, err)
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: create file: %v", ErrUploadFailed, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, reader); err != nil {
		_ = os.Remove(dst.Name())
		return nil, fmt.Errorf("%w: write file: %v", ErrUploadFailed, err)
	}

	return &StoredFile{
		Name: name,
		URL:  b.baseURL + "/" + directory + "/" + name,
		Key:  filepath.Join(directory, name),
	}, nil
}

func (b *LocalBackend) Remove(_ context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	// Reject traversal outside the upload root.
	if strings.Contains(key, "..") || filepath.IsAbs(key) {
		return fmt.Errorf("%w: invalid key %q", ErrRemoveFailed, key)
	}
	if err := os.Remove(filepath.Join(b.root, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrRemoveFailed, err)
	}
	return nil
}

func baseName(originalName string) string {
	base := filepath.Base(originalName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// slugify lowercases and reduces a filename to ascii letters, digits and
// single dashes, the usual URL-safe form for stored upload names.
func slugify(s string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		return "file"
	}
	return slug
}
