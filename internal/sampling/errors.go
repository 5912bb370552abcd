package sampling

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedDirective indicates a settings line with an unknown keyword.
	ErrUnrecognizedDirective = errors.New("sampling: unrecognized settings directive")

	// ErrMalformedDirective indicates a known keyword with bad arguments.
	ErrMalformedDirective = errors.New("sampling: malformed settings directive")

	// ErrDuplicateDirective indicates a directive or key given twice.
	ErrDuplicateDirective = errors.New("sampling: duplicate settings directive")

	// ErrMissingMethod indicates a settings file with no method directive.
	ErrMissingMethod = errors.New("sampling: no method selected")

	ErrUnknownMethod     = errors.New("sampling: unknown method")
	ErrInvalidMethodArgs = errors.New("sampling: invalid method arguments")

	// ErrCVIndex indicates a collective variable referencing a missing particle.
	ErrCVIndex = errors.New("sampling: collective variable index out of range")

	// ErrIncompleteContext indicates a context descriptor without init or step.
	ErrIncompleteContext = errors.New("sampling: incomplete context descriptor")

	ErrInvalidRun = errors.New("sampling: invalid run parameters")
)

// SettingsError locates a settings failure by line.
type SettingsError struct {
	Line int
	Text string
	Err  error
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *SettingsError) Unwrap() error {
	return e.Err
}

// StepError wraps a failure returned by the context step function.
type StepError struct {
	Step    int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
