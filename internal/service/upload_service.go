package service

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/photoshare/photoshare-api/internal/config"
	"github.com/photoshare/photoshare-api/internal/observability"
	"github.com/photoshare/photoshare-api/internal/storage"
)

// UploadFile is one incoming multipart file, decoupled from net/http so
// the service can be driven directly in tests.
type UploadFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

type UploadedPhoto struct {
	Name string
	URL  string
}

type UploadResult struct {
	Photos    []UploadedPhoto
	AvatarURL string

	// stored keeps the backend keys so a failure after the uploads, such
	// as the user row not persisting, can still remove the objects.
	stored []*storage.StoredFile
}

// UploadService validates a registration's file set and delegates each
// file to a storage backend.
type UploadService struct {
	cfg *config.Config
}

func NewUploadService(cfg *config.Config) *UploadService {
	return &UploadService{cfg: cfg}
}

// ProcessRegistrationUploads stores every photo plus the optional avatar.
// The photo count and all file sizes are checked before any storage I/O.
// Uploads run with bounded parallelism; the first failure cancels the
// rest and already-stored objects are removed best-effort.
func (s *UploadService) ProcessRegistrationUploads(ctx context.Context, photos []UploadFile, avatar *UploadFile, backend storage.Backend) (*UploadResult, error) {
	if len(photos) < s.cfg.MinPhotoCount {
		return nil, ErrInsufficientPhotos
	}
	for _, f := range photos {
		if f.Size > s.cfg.MaxPhotoSize {
			return nil, &UploadError{File: f.Name, Err: ErrFileTooBig}
		}
	}
	if avatar != nil && avatar.Size > s.cfg.MaxAvatarSize {
		return nil, &UploadError{File: avatar.Name, Err: ErrFileTooBig}
	}

	stored := make([]*storage.StoredFile, len(photos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.UploadConcurrency)
	for i, f := range photos {
		g.Go(func() error {
			sf, err := backend.Store(gctx, f.Content, f.Size, f.Name, s.cfg.UploadPhotosDir)
			if err != nil {
				return &UploadError{File: f.Name, Err: err}
			}
			stored[i] = sf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.RecordUpload(ctx, backend.Name(), "failure")
		s.cleanup(ctx, backend, stored)
		return nil, err
	}

	result := &UploadResult{Photos: make([]UploadedPhoto, len(stored)), stored: stored}
	for i, sf := range stored {
		result.Photos[i] = UploadedPhoto{Name: sf.Name, URL: sf.URL}
	}

	if avatar != nil {
		sf, err := backend.Store(ctx, avatar.Content, avatar.Size, avatar.Name, s.cfg.UploadAvatarsDir)
		if err != nil {
			observability.RecordUpload(ctx, backend.Name(), "failure")
			s.cleanup(ctx, backend, stored)
			return nil, &UploadError{File: avatar.Name, Err: err}
		}
		result.AvatarURL = sf.URL
		result.stored = append(result.stored, sf)
	}

	observability.RecordUpload(ctx, backend.Name(), "success")
	return result, nil
}

// AbortRegistrationUploads removes every object a successful
// ProcessRegistrationUploads call stored. Callers use it when a later
// registration step fails and the uploads must not outlive it.
func (s *UploadService) AbortRegistrationUploads(ctx context.Context, backend storage.Backend, result *UploadResult) {
	if result == nil {
		return
	}
	s.cleanup(ctx, backend, result.stored)
}

// cleanup removes objects stored before a batch failure. File storage is
// not transactional with the registration, so any object that cannot be
// removed is logged as orphaned.
func (s *UploadService) cleanup(ctx context.Context, backend storage.Backend, stored []*storage.StoredFile) {
	removed, leaked := 0, 0
	for _, sf := range stored {
		if sf == nil {
			continue
		}
		if err := backend.Remove(ctx, sf.Key); err != nil {
			leaked++
			slog.WarnContext(ctx, "orphaned upload could not be removed",
				"backend", backend.Name(), "key", sf.Key, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 || leaked > 0 {
		slog.InfoContext(ctx, "upload batch aborted, compensating cleanup finished",
			"backend", backend.Name(), "removed", removed, "leaked", leaked)
		observability.RecordUploadCleanup(ctx, backend.Name(), removed, leaked)
	}
}
