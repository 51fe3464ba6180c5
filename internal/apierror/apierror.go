// Package apierror annotates failures from remote collaborators with the
// service and operation that produced them, and flags authentication failures.
package apierror

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// authTokens are message fragments that identify credential problems.
var authTokens = []string{
	"invalid_grant",
	"invalid_token",
	"expired_token",
	"unauthorized",
	"401",
}

// Error is a failure raised by a named service during a named operation.
// Use errors.As() to extract it:
//
//	var apiErr *apierror.Error
//	if errors.As(err, &apiErr) && apiErr.AuthError {
//		fmt.Println("refresh your OAuth tokens")
//	}
type Error struct {
	// Service is the collaborator that failed ("YouTube", "Google Sheets").
	Service string
	// Operation describes what was being attempted.
	Operation string
	// AuthError is true when retrying with the same credentials cannot succeed.
	AuthError bool
	// Err is the original failure.
	Err error
}

// Error returns "<service> error while <operation>: <original message>".
func (e *Error) Error() string {
	return e.Service + " error while " + e.Operation + ": " + message(e.Err)
}

// Unwrap returns the original failure for use with errors.Is() and errors.As().
func (e *Error) Unwrap() error { return e.Err }

// Classify wraps err with service and operation context. A nil err yields nil.
// Errors that are already classified are returned unchanged so the innermost
// call site keeps ownership of the context.
func Classify(service, operation string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{
		Service:   service,
		Operation: operation,
		AuthError: isAuthFailure(err),
		Err:       err,
	}
}

// IsAuth reports whether err carries a classified authentication failure.
func IsAuth(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.AuthError
}

// statusCoder is implemented by errors that expose a numeric HTTP status.
type statusCoder interface {
	StatusCode() int
}

func isAuthFailure(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, token := range authTokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return statusCode(err) == http.StatusUnauthorized
}

// statusCode digs a numeric status out of the error chain, or returns 0.
func statusCode(err error) int {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) && rErr.Response != nil {
		return rErr.Response.StatusCode
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

func message(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
