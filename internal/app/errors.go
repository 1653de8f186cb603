package app

import (
	"errors"
	"fmt"

	"ytproxy/internal/app/model"
	"ytproxy/internal/distribution/youtube"
	"ytproxy/internal/staging"
)

var (
	// ErrCredentialUnavailable means the owner has to approve the request again.
	ErrCredentialUnavailable = errors.New("publishing credential unavailable")
	ErrNotApproved           = errors.New("request is not approved")
	ErrAlreadyPublished      = errors.New("request already published")
	// ErrRecordUpdate is returned when the video is live but the request
	// record could not be updated.
	ErrRecordUpdate = errors.New("failed to update request record")
)

// StagingError aborts a run before anything reached the platform.
type StagingError struct {
	Kind model.AssetKind
	Err  error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %s failed: %v", e.Kind, e.Err)
}

func (e *StagingError) Unwrap() error {
	return e.Err
}

// PublishError is a platform rejection of the video or of its thumbnail.
type PublishError struct {
	Kind model.AssetKind
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing %s failed: %v", e.Kind, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

func IsQuotaExceeded(err error) bool {
	return hasCause(err, youtube.CauseQuotaExceeded)
}

func IsForbidden(err error) bool {
	return hasCause(err, youtube.CauseForbidden)
}

func hasCause(err error, cause youtube.Cause) bool {
	var ytErr *youtube.Error
	return errors.As(err, &ytErr) && ytErr.Cause == cause
}

type Hint int

const (
	None Hint = iota
	RetryLater
	Reauthorize
	RetrySoon
)

func (h Hint) String() string {
	switch h {
	case RetryLater:
		return "retry later, upload quota exhausted"
	case Reauthorize:
		return "ask the owner to approve again"
	case RetrySoon:
		return "transient failure, resend soon"
	default:
		return "none"
	}
}

// Advice tells the caller whether resending err's request makes sense.
func Advice(err error) Hint {
	if err == nil {
		return None
	}
	// The video is already live; resending would publish it twice.
	if errors.Is(err, ErrRecordUpdate) {
		return None
	}
	var pubErr *PublishError
	if errors.As(err, &pubErr) && pubErr.Kind == model.KindImage {
		return None
	}

	switch {
	case IsQuotaExceeded(err):
		return RetryLater
	case IsForbidden(err), errors.Is(err, ErrCredentialUnavailable):
		return Reauthorize
	}

	var ytErr *youtube.Error
	if errors.As(err, &ytErr) && ytErr.Transient {
		return RetrySoon
	}

	var stagingErr *StagingError
	if errors.As(err, &stagingErr) {
		var fetchErr *staging.FetchError
		if errors.As(err, &fetchErr) && !fetchErr.Transient {
			return None
		}
		return RetrySoon
	}

	return None
}
