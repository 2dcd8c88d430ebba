package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrMalformedMessage  = errors.New("malformed message")
	ErrDuplicateMessage  = errors.New("duplicate message")
	ErrLeaderUnreachable = errors.New("leader unreachable")
	ErrRosterConflict    = errors.New("conflicting leader claim")
	ErrTrackLoadFailure  = errors.New("track load failure")
	ErrNoTracks          = errors.New("no tracks found")
	ErrNotConnected      = errors.New("not connected to a session")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// SyncError wraps an error with a user-friendly suggestion.
type SyncError struct {
	Err        error
	Suggestion string
}

func (e *SyncError) Error() string {
	return e.Err.Error()
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &SyncError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	// Check if it's already a SyncError with suggestion
	var syncErr *SyncError
	if errors.As(err, &syncErr) && syncErr.Suggestion != "" {
		return syncErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrLeaderUnreachable) || strings.Contains(errStr, "leader unreachable") {
		return "Make sure a leader is running on this network ('syncstream lead') and that UDP broadcast is not blocked"
	}

	if errors.Is(err, ErrNoTracks) || strings.Contains(errStr, "no tracks") {
		return "Put audio files in the media directory, or point [media] dir at one in your config"
	}

	if errors.Is(err, ErrTrackLoadFailure) {
		return "The track was skipped. Check that every participant has the same files in the same order"
	}

	if errors.Is(err, ErrNotConnected) {
		return "Run 'syncstream join' to connect to a session first"
	}

	if errors.Is(err, ErrInvalidConfig) || strings.Contains(errStr, "config") {
		return "Check ~/.syncstreamrc or ~/.config/syncstream/config.toml for mistakes"
	}

	// Network errors
	if strings.Contains(errStr, "address already in use") {
		return "Another SyncStream instance is using the port. Stop it or change [network] port"
	}
	if strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check your network connection and try again"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
