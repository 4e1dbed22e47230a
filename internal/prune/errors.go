package prune

import (
	"errors"
	"fmt"
)

// StructuralError reports input whose delimiters make a safe removal
// impossible. Callers must not write any output when they receive one.
//
// Structural errors include:
//   - Unterminated block: a matched record never closes before end of input
//   - Unbalanced line: a matched line closes a block it did not open
//   - Tokenize failure: a line cannot be tokenized (e.g. an unterminated string)
//   - Root link: a matched line is a field of the root project object
//   - Invalid output: the input parsed but the pruned output does not
type StructuralError struct {
	// Code identifies the error category.
	Code StructuralErrorCode

	// Message is a human-readable description.
	Message string

	// Line is the 1-based input line the error refers to (0 if none).
	Line int

	// Err is the underlying error, if any.
	Err error
}

// StructuralErrorCode categorizes structural errors.
type StructuralErrorCode string

const (
	ErrCodeUnterminatedBlock StructuralErrorCode = "UNTERMINATED_BLOCK"
	ErrCodeUnbalancedLine    StructuralErrorCode = "UNBALANCED_LINE"
	ErrCodeTokenize          StructuralErrorCode = "TOKENIZE_FAILED"
	ErrCodeRootLink          StructuralErrorCode = "ROOT_LINK"
	ErrCodeInvalidOutput     StructuralErrorCode = "INVALID_OUTPUT"
)

// Error implements the error interface.
func (e *StructuralError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Line > 0 {
		msg = fmt.Sprintf("%s: line %d: %s", e.Code, e.Line, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// IsStructuralError returns true if err is or wraps a StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

func newUnterminatedError(startLine, depth int) *StructuralError {
	return &StructuralError{
		Code:    ErrCodeUnterminatedBlock,
		Message: fmt.Sprintf("matched block never closes (%d delimiter(s) still open at end of input)", depth),
		Line:    startLine,
	}
}

func newUnbalancedLineError(line, delta int) *StructuralError {
	return &StructuralError{
		Code:    ErrCodeUnbalancedLine,
		Message: fmt.Sprintf("matched line closes %d enclosing delimiter(s)", -delta),
		Line:    line,
	}
}

func newTokenizeError(line int, err error) *StructuralError {
	return &StructuralError{
		Code:    ErrCodeTokenize,
		Message: "cannot tokenize line",
		Line:    line,
		Err:     err,
	}
}

func newRootLinkError(line int, key string) *StructuralError {
	return &StructuralError{
		Code:    ErrCodeRootLink,
		Message: fmt.Sprintf("matched line is the %s field of the root object", key),
		Line:    line,
	}
}
