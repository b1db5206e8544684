package buttercup

import (
	"errors"
	"fmt"
)

var (
	ErrNoUsername     = errors.New("no username provided")
	ErrSearchNotFound = errors.New("search not found")
)

type UserNotFoundError struct {
	Username string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user u/%s not found", e.Username)
}

// NewUserError is returned for volunteers which did not complete any transcription yet.
type NewUserError struct {
	Username string
}

func (e *NewUserError) Error() string {
	return fmt.Sprintf("user u/%s has not transcribed yet", e.Username)
}

type InvalidArgumentError struct {
	Argument string
	Value    string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid value %q for argument %s", e.Value, e.Argument)
}

type TimeParseError struct {
	TimeStr string
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("invalid time string: '%s'", e.TimeStr)
}

// IsUserError reports whether err was caused by the arguments of the user
// rather than by Blossom or Discord.
func IsUserError(err error) bool {
	var (
		userNotFoundErr *UserNotFoundError
		newUserErr      *NewUserError
		invalidArgErr   *InvalidArgumentError
		timeParseErr    *TimeParseError
	)
	return errors.Is(err, ErrNoUsername) ||
		errors.As(err, &userNotFoundErr) ||
		errors.As(err, &newUserErr) ||
		errors.As(err, &invalidArgErr) ||
		errors.As(err, &timeParseErr)
}
