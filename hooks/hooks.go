// Package hooks contains ready-made hooks for common metric enrichment.
package hooks

import (
	"fmt"
	"net/http"
	"strconv"

	te "github.com/kpn-digital/timeexecution"
)

// Names of the fields added by the hooks of this package.
const (
	StatusField     = "status"
	ErrorField      = "error"
	ErrorTypeField  = "error_type"
	StatusCodeField = "status_code"
)

// Values of the status field.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

type static struct {
	fields te.Fields
}

// Static adds a fixed set of fields to every metric, e.g. the deployment environment.
func Static(fields te.Fields) te.Hook {
	return &static{fields: fields.Clone()}
}

func (h *static) Run(inv te.Invocation) (te.Fields, error) {
	return h.fields.Clone(), nil
}

func (h *static) String() string {
	return "static"
}

type status struct{}

// Status tags each metric with the outcome of the timed call: "ok" or "error".
func Status() te.Hook {
	return status{}
}

func (status) Run(inv te.Invocation) (te.Fields, error) {
	if inv.Failed() {
		return te.Fields{StatusField: StatusError}, nil
	}

	return te.Fields{StatusField: StatusOK}, nil
}

func (status) String() string {
	return "status"
}

type errorFields struct{}

// ErrorFields records the message and dynamic type of the failure of a timed call. Successful
// calls are left unchanged.
func ErrorFields() te.Hook {
	return errorFields{}
}

func (errorFields) Run(inv te.Invocation) (te.Fields, error) {
	if !inv.Failed() {
		return nil, nil
	}

	return te.Fields{
		ErrorField:     inv.Err.Error(),
		ErrorTypeField: fmt.Sprintf("%T", inv.Err),
	}, nil
}

func (errorFields) String() string {
	return "error_fields"
}

// StatusCoder is implemented by responses carrying an HTTP-like status code.
type StatusCoder interface {
	StatusCode() int
}

type httpStatus struct{}

// HTTPStatus splits the series of timed HTTP calls by status code: a call to "api.fetch" returning
// a 404 is recorded as "api.fetch.404", with the code also kept in the status_code field.
// Responses may be an *http.Response or implement StatusCoder; anything else is left unchanged.
func HTTPStatus() te.Hook {
	return httpStatus{}
}

func (httpStatus) Run(inv te.Invocation) (te.Fields, error) {
	var code int

	switch response := inv.Response.(type) {
	case *http.Response:
		if response == nil {
			return nil, nil
		}
		code = response.StatusCode
	case StatusCoder:
		code = response.StatusCode()
	default:
		return nil, nil
	}

	if code == 0 {
		return nil, nil
	}

	return te.Fields{
		te.NameField:    inv.Metric.Name() + "." + strconv.Itoa(code),
		StatusCodeField: code,
	}, nil
}

func (httpStatus) String() string {
	return "http_status"
}
