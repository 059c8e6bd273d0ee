package tokenizer

import "fmt"

// ProcessError is a failed tokenizer subprocess invocation.
//
// Message is the interpreter's own failure text (stderr, else stdout) and is
// returned verbatim by Error so it can be shown to the user unchanged.
type ProcessError struct {
	Message  string
	ExitCode int
	Err      error
}

// Error implements the error interface.
func (e *ProcessError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("php exited with status %d", e.ExitCode)
}

// Unwrap returns the underlying exec error.
func (e *ProcessError) Unwrap() error {
	return e.Err
}
