package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInsufficientPhotos = errors.New("not enough photos")
	ErrFileTooBig         = errors.New("file size exceeds the configured limit")
	ErrDuplicateEmail     = errors.New("this email is already used")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors accumulates every field violation found during
// registration so the client gets them all at once.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// UploadError identifies which file failed so the caller can report it.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed for %q: %v", e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
