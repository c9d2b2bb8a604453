// Package utilities contain utility code that use across the package
package utilities

// ErrorResponse is the uniform error payload returned by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the uniform informational payload.
type MessageResponse struct {
	Message string `json:"message"`
}
