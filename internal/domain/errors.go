package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrPermissionDenied     = errors.New("microphone permission denied")
	ErrDeviceUnavailable    = errors.New("microphone device unavailable")
	ErrInvalidFileType      = errors.New("invalid file type: an audio file is required")
	ErrSlotBusy             = errors.New("capture slot is busy")
	ErrMicrophoneBusy       = errors.New("another slot is already recording")
	ErrNoAsset              = errors.New("no audio captured")
	ErrAddressNotFound      = errors.New("no location found for pincode")
	ErrUserNotFound         = errors.New("user not found")
	ErrMissingFields        = errors.New("missing required fields")
	ErrInvalidValue         = errors.New("invalid field value")
	ErrFieldLocked          = errors.New("field is locked while the address is resolving")
	ErrAddressResolving     = errors.New("address lookup has not finished")
	ErrNotSignedIn          = errors.New("not signed in")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrWrongStep            = errors.New("action not available on this step")
)

// BackendError is a non-2xx response from the backend API.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}
