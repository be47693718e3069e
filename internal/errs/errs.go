package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the API layer can map it to a response code.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindInsufficientStock
	KindValidation
)

// Error carries a kind alongside the message and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing user, menu item, department or order.
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a unique-constraint or referential-integrity violation.
func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Validation reports malformed input.
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStock reports a line whose requested quantity exceeds the
// item's available stock.
func InsufficientStock(itemName string, available, requested int) error {
	return &Error{
		Kind: KindInsufficientStock,
		Msg:  fmt.Sprintf("insufficient stock for %s: available=%d, requested=%d", itemName, available, requested),
	}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool          { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool          { return KindOf(err) == KindConflict }
func IsInsufficientStock(err error) bool { return KindOf(err) == KindInsufficientStock }
func IsValidation(err error) bool        { return KindOf(err) == KindValidation }
