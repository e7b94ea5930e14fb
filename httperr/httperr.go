package httperr

import "net/http"

// Error is a domain error with an HTTP status attached. Handlers return
// these from business logic and serialize them once at the boundary as
// {"message": "..."} with the carried status; nothing else leaks out.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// BadRequest covers validation failures; the message is the field-specific
// text produced by the validation layer.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized deliberately carries a generic message unless the caller
// provides one, so credential failures never reveal which factor was wrong.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Not authorized"
	}
	return New(http.StatusUnauthorized, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

func Internal() *Error {
	return New(http.StatusInternalServerError, "Internal server error")
}
