package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// PanicError is a recovered panic turned into an error.
type PanicError struct {
	Operation string
	Value     interface{} // what was passed to panic()
	Stack     []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.Value)
}

// Unwrap exposes the panic value when it is itself an error, so that
// panic(err) stays matchable with errors.Is / errors.As.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("panic", fmt.Sprint(e.Value)).
		Bytes("stack", e.Stack)
}

// NewPanicError captures the current goroutine stack.
func NewPanicError(operation string, value interface{}) *PanicError {
	return &PanicError{Operation: operation, Value: value, Stack: debug.Stack()}
}

// Recover converts a panic into an error assigned to *err. Use it with defer:
//
//	func (nb *MultinomialNB) PartialFit(...) (err error) {
//	    defer errors.Recover(&err, "MultinomialNB.PartialFit")
//	    ...
//	}
//
// An error already in *err is kept and annotated with the panic.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = errors.Wrapf(*err, "panic in %s: %v", operation, r)
		return
	}
	*err = NewPanicError(operation, r)
}
