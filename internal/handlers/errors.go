package handlers

import "github.com/danielgtaylor/huma/v2"

// errorResponse is the boundary error shape: {"error": "<message>"}.
// The intake form and the admin tooling both predate this service and
// expect exactly this body, not huma's default problem+json model.
type errorResponse struct {
	status  int
	Message string `json:"error"`
}

func (e *errorResponse) Error() string {
	return e.Message
}

func (e *errorResponse) GetStatus() int {
	return e.status
}

// UseCompactErrors swaps huma's error model for the {"error": ...} shape.
// Called once during route registration.
func UseCompactErrors() {
	huma.NewError = func(status int, message string, _ ...error) huma.StatusError {
		return &errorResponse{status: status, Message: message}
	}
}
