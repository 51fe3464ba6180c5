package ytsheets

import (
	"ytsheets/config"
	"ytsheets/internal/apierror"
	"ytsheets/internal/auth"
	"ytsheets/internal/retry"
	"ytsheets/internal/storage"
	"ytsheets/sheets"
	"ytsheets/syncer"
	"ytsheets/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ytsheets.ErrInvalidRequest) {
//		fmt.Println("check the playlist and spreadsheet IDs")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var apiErr *ytsheets.APIError
//	if errors.As(err, &apiErr) && apiErr.AuthError {
//		fmt.Printf("%s rejected the credentials\n", apiErr.Service)
//	}

// Type aliases for convenient error handling.
type (
	// APIError is a failure from YouTube or Google Sheets, tagged with the operation.
	APIError = apierror.Error
	// RetryableError wraps the last failure after the retry budget was exhausted.
	RetryableError = retry.RetryableError
	// ConfigError lists missing and invalid configuration values.
	ConfigError = config.ConfigError
	// FormatError reports a duration the API returned in an unknown format.
	FormatError = youtube.FormatError
	// StorageError wraps errors during run history operations.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrInvalidRequest indicates a sync request that can never succeed.
	ErrInvalidRequest = syncer.ErrInvalidRequest
	// ErrInvalidPlaylistID indicates an empty playlist ID.
	ErrInvalidPlaylistID = youtube.ErrInvalidPlaylistID
	// ErrInvalidDuration indicates an unparseable ISO-8601 duration.
	ErrInvalidDuration = youtube.ErrInvalidDuration
	// ErrInvalidCell indicates a start cell that is not in A1 notation.
	ErrInvalidCell = sheets.ErrInvalidCell
	// ErrSheetNotFound indicates the destination tab is missing.
	ErrSheetNotFound = sheets.ErrSheetNotFound
	// ErrNotConfigured indicates a session that was never registered.
	ErrNotConfigured = auth.ErrNotConfigured
	// ErrMissingCredentials indicates a session with no usable token or key.
	ErrMissingCredentials = auth.ErrMissingCredentials

	// Storage errors
	// ErrNotFound indicates an entity was not found in storage.
	ErrNotFound = storage.ErrNotFound
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = storage.ErrLockTimeout
)

// IsAuthError reports whether err is a credential problem that retrying cannot fix.
func IsAuthError(err error) bool {
	return apierror.IsAuth(err)
}

// IsRetryable determines if an error should be retried.
// It returns false for authentication failures and context errors.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}
