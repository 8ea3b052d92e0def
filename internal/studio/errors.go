package studio

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoScript         = errors.New("no script loaded")
	ErrBusy             = errors.New("an edit is already in flight")
	ErrRangeOutOfBounds = errors.New("selection is outside the script")
	ErrNoSelection      = errors.New("select text to edit")
	ErrBlankInstruction = errors.New("instruction must not be blank")
	ErrNotEditing       = errors.New("no edit in flight")
	ErrNothingToUndo    = errors.New("nothing to undo")
)

// APIError is a non-2xx answer from the script service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("script service: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("script service: %d %s", e.Status, e.Message)
}

// IsClientError reports whether err is an APIError in the 4xx range.
func IsClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}
