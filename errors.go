package stormidb

import "fmt"

// Code describes the category of an Error. Callers should act on a Code,
// not on an error's message text.
type Code int

const (
	// Unknown means the error could not be categorized.
	Unknown Code = iota

	// NotFound means the document (or collection) does not exist.
	NotFound

	// UniqueViolation means a unique-field probe found another document
	// already holding the value being written.
	UniqueViolation

	// Conflict means a catalog compare-and-swap failed after all retries
	// were exhausted.
	Conflict

	// Unsupported means a field value has no tag encoding; the write
	// proceeds without tagging that field.
	Unsupported

	// Validation means the caller supplied a malformed query or document.
	Validation

	// Transient means an individual document fetch failed during a
	// listing or query; the surrounding call still succeeds with that hit
	// dropped.
	Transient

	// Internal indicates a bug in this package or the underlying store.
	Internal
)

var codeStrings = []string{
	"Unknown",
	"NotFound",
	"UniqueViolation",
	"Conflict",
	"Unsupported",
	"Validation",
	"Transient",
	"Internal",
}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeStrings) {
		return codeStrings[c]
	}
	return "?badCode?"
}

// Error is the error type this package uses for the categorized failures
// above. Errors from the underlying store or the planner are returned
// as-is, and CodeOf reports Unknown for them.
type Error struct {
	Code Code
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.msg)
}

// Unwrap returns the error underlying the receiver, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// newError returns a new error with the given code, optional underlying
// error, and message.
func newError(c Code, err error, msg string) *Error {
	return &Error{Code: c, msg: msg, err: err}
}

// newErrorf uses format and args to build the message, then calls newError.
func newErrorf(c Code, err error, format string, args ...interface{}) *Error {
	return newError(c, err, fmt.Sprintf(format, args...))
}

// CodeOf returns the Code of err if err is (or wraps) an *Error, and
// Unknown otherwise.
func CodeOf(err error) Code {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return Unknown
	}
	return e.Code
}
