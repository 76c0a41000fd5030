package reddit

import "fmt"

// AuthError is returned when the token exchange fails.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil && e.Status == 0 {
		return fmt.Sprintf("reddit auth failed: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("reddit auth error %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("reddit auth error %d: %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError is returned when the comment listing cannot be retrieved.
type FetchError struct {
	Username string
	Status   int
	Body     string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil && e.Status == 0 {
		return fmt.Sprintf("fetch comments for u/%s: %v", e.Username, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch comments for u/%s: reddit error %d: %v", e.Username, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch comments for u/%s: reddit error %d: %s", e.Username, e.Status, e.Body)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError rejects input before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
