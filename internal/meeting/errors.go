package meeting

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a command referencing an absent meeting name.
	ErrNotFound = errors.New("meeting does not exist")
	// ErrAlreadyExists marks an add colliding with an existing name.
	ErrAlreadyExists = errors.New("meeting already exists")
	// ErrUnsupported marks commands that are deliberately not implemented.
	ErrUnsupported = errors.New("not implemented")
)

// ValidationError reports malformed command input (bad times, unknown weekday
// tokens, empty participant sets). It is raised before any mutation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
