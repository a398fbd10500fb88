package exceptions

import (
	"caresync-service/internal/pkg/constvars"
	"fmt"
	"runtime"
)

// Kind partitions failures the way callers need to react to them:
// a validation failure never reached the network, a remote failure is the
// FHIR server saying no, a transport failure never got an HTTP status, and
// a persistence failure means the local store write failed.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindRemote      Kind = "remote"
	KindTransport   Kind = "transport"
	KindPersistence Kind = "persistence"
	KindInternal    Kind = "internal"
)

type CustomError struct {
	StatusCode    int      `json:"status_code"`
	Success       bool     `json:"success"`
	ClientMessage string   `json:"message"`
	Kind          Kind     `json:"-"`
	DevMessage    string   `json:"dev_message,omitempty"`
	Location      Location `json:"-"`

	// UpstreamStatus and UpstreamBody are set only for KindRemote and carry
	// the FHIR server's verbatim response.
	UpstreamStatus int    `json:"-"`
	UpstreamBody   string `json:"-"`
}

type Location struct {
	File         string
	Line         int
	FunctionName string
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%s (%s:%d %s)", e.DevMessage, e.Location.File, e.Location.Line, e.Location.FunctionName)
}

func WrapWithoutError(statusCode int, clientMessage, devMessage string) *CustomError {
	return &CustomError{
		StatusCode:    statusCode,
		ClientMessage: clientMessage,
		DevMessage:    devMessage,
		Kind:          KindInternal,
		Location:      getLocation(2),
	}
}

func WrapWithError(err error, statusCode int, clientMessage, devMessage string) *CustomError {
	return &CustomError{
		StatusCode:    statusCode,
		ClientMessage: clientMessage,
		DevMessage:    fmt.Sprintf("%s: %s", devMessage, err.Error()),
		Kind:          KindInternal,
		Location:      getLocation(2),
	}
}

func buildKindError(err error, kind Kind, statusCode int, clientMessage, devMessage string) *CustomError {
	if err != nil {
		devMessage = fmt.Sprintf("%s: %s", devMessage, err.Error())
	}
	return &CustomError{
		StatusCode:    statusCode,
		ClientMessage: clientMessage,
		DevMessage:    devMessage,
		Kind:          kind,
		Location:      getLocation(3),
	}
}

func getLocation(skip int) Location {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return Location{
			File:         constvars.ResponseUnknown,
			Line:         0,
			FunctionName: constvars.ResponseUnknown,
		}
	}
	function := runtime.FuncForPC(pc).Name()
	return Location{
		File:         file,
		Line:         line,
		FunctionName: function,
	}
}
