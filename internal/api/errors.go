package api

import "fmt"

// Error is the typed failure for every REST call. API failures carry the
// HTTP status and the backend's nonzero error_code; network failures (no
// response received) carry status 0 and error code 0.
type Error struct {
	Status    int
	ErrorCode int
	Message   string
	Fields    map[string][]string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network error: %s", e.Message)
	}
	return fmt.Sprintf("api error %d (status %d): %s", e.ErrorCode, e.Status, e.Message)
}

// IsNetwork reports whether the request never produced a response.
func (e *Error) IsNetwork() bool {
	return e.Status == 0
}

// networkError wraps a transport failure into the shared error type.
func networkError(err error) *Error {
	return &Error{Status: 0, Message: err.Error()}
}
