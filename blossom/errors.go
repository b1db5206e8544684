package blossom

import (
	"errors"
	"fmt"
)

var ErrUserNotFound = errors.New("user not found")

// Error is returned for every non 2xx response of the Blossom API.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("blossom responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("blossom responded with status %d: %s", e.StatusCode, e.Body)
}
