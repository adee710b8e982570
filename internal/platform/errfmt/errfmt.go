// Package errfmt converts arbitrary failure values into a display-ready
// title/message pair. Every failure path that ends in a notification or a
// table error state runs through Normalize.
package errfmt

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
)

// Default values used when nothing better can be extracted.
const (
	DefaultTitle   = "Error"
	DefaultMessage = "An unexpected error occurred"
)

// ErrorDetails is the normalized shape shown to users.
type ErrorDetails struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Titled lets transport-layer errors carry their own display title and
// message (e.g. an upstream HTTP failure with an OperationOutcome
// diagnostic). Implementations take precedence over generic unwrapping.
type Titled interface {
	ErrorTitle() string
	ErrorMessage() string
}

// Normalize maps any value to an ErrorDetails. It never panics: unknown
// shapes collapse to the default title and message.
func Normalize(v any) ErrorDetails {
	switch e := v.(type) {
	case nil:
		return ErrorDetails{Title: DefaultTitle, Message: DefaultMessage}
	case Titled:
		return fromTitled(e)
	case *echo.HTTPError:
		return fromHTTPError(e)
	case error:
		var titled Titled
		if errors.As(e, &titled) {
			return fromTitled(titled)
		}
		var he *echo.HTTPError
		if errors.As(e, &he) {
			return fromHTTPError(he)
		}
		msg := e.Error()
		if msg == "" {
			msg = DefaultMessage
		}
		return ErrorDetails{Title: DefaultTitle, Message: msg}
	default:
		return ErrorDetails{Title: DefaultTitle, Message: DefaultMessage}
	}
}

func fromTitled(t Titled) ErrorDetails {
	d := ErrorDetails{Title: t.ErrorTitle(), Message: t.ErrorMessage()}
	if d.Title == "" {
		d.Title = DefaultTitle
	}
	if d.Message == "" {
		d.Message = DefaultMessage
	}
	return d
}

func fromHTTPError(he *echo.HTTPError) ErrorDetails {
	msg := DefaultMessage
	if he.Message != nil {
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else {
			msg = fmt.Sprintf("%v", he.Message)
		}
	}
	return ErrorDetails{Title: DefaultTitle, Message: msg}
}
