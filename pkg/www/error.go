package www

import (
	"fmt"
	"net/http"

	"github.com/cyclopcam/logs"
)

// HTTPError is an object that can be panic'ed, and the outer HTTP handler function
// will return the appropriate HTTP error message.
type HTTPError struct {
	Code    int
	Message string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("%v %v", e.Code, e.Message)
}

func Error(code int, message string) HTTPError {
	return HTTPError{code, message}
}

// Panic creates an HTTPError object and panics it.
func Panic(code int, message string) {
	panic(HTTPError{code, message})
}

// PanicBadRequest panics with a 400 Bad Request.
func PanicBadRequest() {
	panic(BadRequest())
}

func BadRequest() HTTPError {
	return HTTPError{http.StatusBadRequest, "Bad Request"}
}

// PanicBadRequestf panics with a 400 Bad Request.
func PanicBadRequestf(format string, args ...interface{}) {
	panic(BadRequestf(format, args...))
}

func BadRequestf(format string, args ...interface{}) HTTPError {
	return HTTPError{http.StatusBadRequest, fmt.Sprintf(format, args...)}
}

// PanicNotFound panics with a 404 Not Found.
func PanicNotFound() {
	panic(NotFound())
}

func NotFound() HTTPError {
	return HTTPError{http.StatusNotFound, "Not Found"}
}

func PanicNotFoundf(format string, args ...interface{}) {
	panic(HTTPError{http.StatusNotFound, fmt.Sprintf(format, args...)})
}

// PanicServerError panics with a 500 Internal Server Error
func PanicServerError(msg string) {
	panic(ServerError(msg))
}

func ServerError(msg string) HTTPError {
	return HTTPError{http.StatusInternalServerError, msg}
}

// PanicServerErrorf panics with a 500 Internal Server Error
func PanicServerErrorf(format string, args ...interface{}) {
	panic(ServerErrorf(format, args...))
}

func ServerErrorf(format string, args ...interface{}) HTTPError {
	return HTTPError{http.StatusInternalServerError, fmt.Sprintf(format, args...)}
}

// Check causes a panic if err is not nil.
func Check(err error) {
	if err != nil {
		panic(err)
	}
}

// CheckLogged writes the error to the log, and then causes a panic, if err is not nil.
func CheckLogged(l logs.Log, err error) {
	if err != nil {
		if l != nil {
			l.Errorf("CheckLogged: %v", err)
		}
		panic(err)
	}
}

// CheckClient causes a PanicBadRequest if err is not nil.
func CheckClient(err error) {
	if err != nil {
		PanicBadRequestf("%v", err)
	}
}
