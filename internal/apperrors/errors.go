package apperrors

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrConfig indicates that the configuration file is unreadable or an option is missing or malformed.
var ErrConfig = errors.New("configuration error")

// ErrFetch indicates a network or transport failure while retrieving the rate feed.
var ErrFetch = errors.New("fetch error")

// ErrDecode indicates that the rate feed answered with an unexpected status or payload.
var ErrDecode = errors.New("decode error")

// ErrLoad indicates that the expense ledger document or sheet could not be opened or parsed.
var ErrLoad = errors.New("load error")

// ErrConnect indicates that the destination store could not be reached.
var ErrConnect = errors.New("connect error")

// ErrWrite indicates that writing to the destination store failed.
var ErrWrite = errors.New("write error")

// StageError reports which pipeline stage failed.
// errors.Is matches both the error kind (one of the sentinels above) and the underlying cause.
type StageError struct {
	Stage string
	Kind  error
	Err   error
}

// NewStageError wraps err as a failure of stage. If err already carries one of the
// sentinel kinds it is kept; otherwise kind is used.
func NewStageError(stage string, kind error, err error) *StageError {
	for _, k := range []error{ErrConfig, ErrFetch, ErrDecode, ErrLoad, ErrConnect, ErrWrite} {
		if errors.Is(err, k) {
			kind = k
			break
		}
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

// LogValue groups the stage, the kind and the cause for structured logs.
func (e *StageError) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("stage", e.Stage)}
	if e.Kind != nil {
		attrs = append(attrs, slog.String("kind", e.Kind.Error()))
	}
	attrs = append(attrs, slog.String("error", e.Err.Error()))
	return slog.GroupValue(attrs...)
}
