package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/photoshare/photoshare-api/internal/config"
	"github.com/photoshare/photoshare-api/internal/http/response"
	"github.com/photoshare/photoshare-api/internal/observability"
	"github.com/photoshare/photoshare-api/internal/service"
	"github.com/photoshare/photoshare-api/internal/storage"
)

// parseMemoryLimit bounds how much of the multipart body is buffered in
// memory; larger files spill to temp files.
const parseMemoryLimit = 32 << 20

var knownValueFields = map[string]struct{}{
	"firstName": {},
	"lastName":  {},
	"email":     {},
	"password":  {},
}

// RegisterHandler serves the multipart registration endpoints. Each route
// binds the same pipeline to a different storage backend.
type RegisterHandler struct {
	cfg   *config.Config
	svc   service.RegistrationServiceInterface
	local storage.Backend
	cloud storage.Backend
}

func NewRegisterHandler(cfg *config.Config, svc service.RegistrationServiceInterface, local, cloud storage.Backend) *RegisterHandler {
	return &RegisterHandler{cfg: cfg, svc: svc, local: local, cloud: cloud}
}

// RegisterLocal handles POST /api/users/register.
func (h *RegisterHandler) RegisterLocal(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.local)
}

// RegisterCloud handles POST /api/users/register/aws.
func (h *RegisterHandler) RegisterCloud(w http.ResponseWriter, r *http.Request) {
	if h.cloud == nil {
		response.Error(w, r, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "cloud storage is not configured")
		return
	}
	h.register(w, r, h.cloud)
}

func (h *RegisterHandler) register(w http.ResponseWriter, r *http.Request, backend storage.Backend) {
	start := time.Now()
	in, cleanup, err := h.parseForm(r)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.Error(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body exceeds the allowed size")
			return
		}
		response.Error(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user, err := h.svc.Register(r.Context(), *in, backend)
	if err != nil {
		observability.RecordRegistrationDuration(r.Context(), backend.Name(), "failure", time.Since(start))
		h.writeRegisterError(w, r, err)
		return
	}

	accepted := int64(0)
	for _, f := range in.Photos {
		accepted += f.Size
	}
	if in.Avatar != nil {
		accepted += in.Avatar.Size
	}
	observability.RecordUploadBytes(r.Context(), backend.Name(), accepted)
	observability.RecordRegistrationDuration(r.Context(), backend.Name(), "success", time.Since(start))

	observability.Audit(r, "user.registered", "user_id", user.ID, "backend", backend.Name(), "photos", len(user.Photos))
	response.JSON(w, r, http.StatusCreated, user)
}

func (h *RegisterHandler) writeRegisterError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs service.ValidationErrors
	if errors.As(err, &verrs) {
		response.ErrorWithDetails(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "registration request is invalid", verrs)
		return
	}
	if errors.Is(err, service.ErrInsufficientPhotos) {
		msg := fmt.Sprintf("You must upload at least %d photos", h.cfg.MinPhotoCount)
		response.Error(w, r, http.StatusBadRequest, "INSUFFICIENT_PHOTOS", msg)
		return
	}
	if errors.Is(err, service.ErrDuplicateEmail) {
		response.Error(w, r, http.StatusConflict, "DUPLICATE_EMAIL", "this email is already used")
		return
	}
	if errors.Is(err, service.ErrFileTooBig) {
		response.Error(w, r, http.StatusBadRequest, "FILE_TOO_BIG", err.Error())
		return
	}
	if errors.Is(err, storage.ErrInvalidFileType) {
		response.Error(w, r, http.StatusBadRequest, "INVALID_FILE_TYPE", err.Error())
		return
	}
	var uerr *service.UploadError
	if errors.As(err, &uerr) {
		response.Error(w, r, http.StatusBadGateway, "UPLOAD_FAILED", "could not store uploaded files")
		return
	}
	slog.ErrorContext(r.Context(), "registration failed", "error", err)
	response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

// parseForm maps the multipart body onto a RegisterInput. Photos are
// accepted under "photos[]" with "photos" as a fallback key. Value
// fields outside the known set are rejected so typos surface instead of
// being silently dropped.
func (h *RegisterHandler) parseForm(r *http.Request) (*service.RegisterInput, func(), error) {
	if err := r.ParseMultipartForm(parseMemoryLimit); err != nil {
		return nil, nil, fmt.Errorf("parse multipart form: %w", err)
	}
	form := r.MultipartForm
	cleanup := func() { _ = form.RemoveAll() }

	for field := range form.Value {
		if _, ok := knownValueFields[field]; !ok {
			return nil, cleanup, fmt.Errorf("unexpected form field %q", field)
		}
	}

	photoHeaders := form.File["photos[]"]
	if len(photoHeaders) == 0 {
		photoHeaders = form.File["photos"]
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = form.RemoveAll()
	}

	photos := make([]service.UploadFile, 0, len(photoHeaders))
	for _, fh := range photoHeaders {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("open uploaded photo %q: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		photos = append(photos, service.UploadFile{Name: fh.Filename, Size: fh.Size, Content: f})
	}

	var avatar *service.UploadFile
	if headers := form.File["avatar"]; len(headers) > 0 {
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("open uploaded avatar %q: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		avatar = &service.UploadFile{Name: fh.Filename, Size: fh.Size, Content: f}
	}

	in := &service.RegisterInput{
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		Photos:    photos,
		Avatar:    avatar,
	}
	return in, closeAll, nil
}
