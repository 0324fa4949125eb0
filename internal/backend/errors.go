package backend

import (
	"errors"
	"fmt"
	"regexp"
)

// APIError is a non-2xx response from the backend. Detail carries the
// backend's own error message when it sent one, otherwise a truncated
// slice of the raw body.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Detail)
}

// IsAuthError reports whether err is an APIError caused by a missing,
// expired, or rejected credential.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Status == 401 || apiErr.Status == 403)
}

// ValidationError is a client-side rejection: the request was never
// sent because its input could not be valid.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var collectionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidCollectionName reports whether name is acceptable to the vector
// database: non-empty, letters, digits, underscores, and hyphens only.
func ValidCollectionName(name string) bool {
	return collectionNameRe.MatchString(name)
}
