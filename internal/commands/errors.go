package commands

import (
	"fmt"

	"crypto-alert-bot/lib/translation"
)

// ErrorKind classifies handler failures so the router can answer each one
// appropriately.
type ErrorKind string

const (
	KindInput  ErrorKind = "input"
	KindFetch  ErrorKind = "fetch"
	KindRender ErrorKind = "render"
)

// Error is a handler failure with the text shown to the user.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// InputError rejects malformed arguments. Nothing has been changed.
func InputError(msg string) *Error {
	return &Error{Kind: KindInput, Message: msg}
}

// FetchError reports an unknown asset or an upstream failure.
func FetchError(err error, msg string) *Error {
	return &Error{Kind: KindFetch, Message: msg, Err: err}
}

// RenderError reports a chart that could not be drawn.
func RenderError(err error) *Error {
	return &Error{
		Kind:    KindRender,
		Message: translation.Translate("An error occurred while generating the chart."),
		Err:     err,
	}
}

func genericErrorMessage() string {
	return translation.Translate("Something went wrong, please try again later.")
}
