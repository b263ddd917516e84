package errors

import (
	"errors"
	"fmt"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamCode   string `json:"upstream_code,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

// UpstreamDetails is attached to errors produced from café backend responses.
type UpstreamDetails struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	// Body is the raw response when it carried no usable message. Logged only.
	Body string `json:"-"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
		if up, ok := te.Details().(UpstreamDetails); ok {
			d.UpstreamStatus = up.Status
			d.UpstreamCode = up.Code
			d.UpstreamBody = up.Body
		}
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	return d
}
