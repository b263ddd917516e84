package types

import "encoding/json"

// SuccessEnvelope wraps every successful response served by this service.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// UpstreamEnvelope is the shape returned by the café backend.
type UpstreamEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *UpstreamError  `json:"error,omitempty"`
	Detail  json.RawMessage `json:"detail,omitempty"`
}

type UpstreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Page carries offset pagination metadata next to a result list.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
