package main

import "fmt"

const (
	ErrCodeNotArray       string = "not_array"
	ErrCodeMalformedImage string = "malformed_image"
	ErrCodeTransport      string = "transport"
)

// ShapeError reports an API response that does not look like a list of images.
type ShapeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ShapeError) Error() string {
	return e.Message
}

var ErrNotArray = &ShapeError{Code: ErrCodeNotArray, Message: "could not get a cat image: response is not a non-empty array"}
var ErrMalformedImage = &ShapeError{Code: ErrCodeMalformedImage, Message: "could not get a cat image: first element has no string url"}

// TransportError wraps failures of the call itself: request, network, body or JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
