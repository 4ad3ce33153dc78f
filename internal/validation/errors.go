package validation

import "errors"

// ValidationError is returned when a request payload breaks a field rule. Fields names
// every offending field; Message is safe to show to API callers.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var vErr ValidationError
	return errors.As(err, &vErr)
}
