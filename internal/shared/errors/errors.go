//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package errors

import (
	"errors"
)

var (
	ErrMissingBotToken = errors.New("TOKEN environment variable is required")

	ErrWrongContext      = errors.New("request from unauthorized context")
	ErrMisconfigured     = errors.New("required configuration missing or invalid")
	ErrInvalidName       = errors.New("invalid channel name")
	ErrInvalidCapacity   = errors.New("capacity out of range")
	ErrZeroDuration      = errors.New("duration must be greater than zero")
	ErrInvalidDuration   = errors.New("invalid duration fields")
	ErrNotFound          = errors.New("not found")
	ErrTransientPlatform = errors.New("platform call failed")
	ErrFatal             = errors.New("unexpected internal error")
	ErrUnauthorized      = errors.New("unauthorized user")
)

// ErrorKind classifies errors for metrics labels and user-facing replies
// ENUM(wrong_context,misconfigured,invalid_name,invalid_capacity,zero_duration,invalid_duration,not_found,transient_platform_failure,unauthorized,fatal)
type ErrorKind string

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrWrongContext, ErrorKindWrongContext},
	{ErrMisconfigured, ErrorKindMisconfigured},
	{ErrInvalidName, ErrorKindInvalidName},
	{ErrInvalidCapacity, ErrorKindInvalidCapacity},
	{ErrZeroDuration, ErrorKindZeroDuration},
	{ErrInvalidDuration, ErrorKindInvalidDuration},
	{ErrNotFound, ErrorKindNotFound},
	{ErrTransientPlatform, ErrorKindTransientPlatformFailure},
	{ErrUnauthorized, ErrorKindUnauthorized},
}

// Kind returns the taxonomy entry for err. Anything unrecognised is fatal.
func Kind(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ErrorKindFatal
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
