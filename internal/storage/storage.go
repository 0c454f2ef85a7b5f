package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
)

var (
	ErrInvalidFileType = errors.New("invalid file type, only allowed image formats are accepted")
	ErrUploadFailed    = errors.New("failed to store file")
	ErrRemoveFailed    = errors.New("failed to remove file")
)

// StoredFile describes a persisted upload. Key is the backend-specific
// location used for later removal; URL is where clients retrieve it.
type StoredFile struct {
	Name string
	URL  string
	Key  string
}

// Backend is a pluggable destination for uploaded binary files.
type Backend interface {
	Store(ctx context.Context, content io.Reader, size int64, originalName, directory string) (*StoredFile, error)
	Remove(ctx context.Context, key string) error
	Name() string
}

// sniffContentType reads the first 512 bytes to detect the actual content
// type, preventing spoofing via client-controlled headers. The returned
// reader replays the sniffed bytes followed by the rest of the content.
func sniffContentType(content io.Reader, allowed map[string]struct{}) (string, io.Reader, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(content, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	buf = buf[:n]

	detected := strings.ToLower(strings.TrimSpace(http.DetectContentType(buf)))
	if _, ok := allowed[detected]; !ok {
		return "", nil, ErrInvalidFileType
	}
	return detected, io.MultiReader(bytes.NewReader(buf), content), nil
}

func contentTypeToExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
