// Package dto holds the request and response shapes of the HTTP API
package dto

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail represents error details in API responses.
// For rejected filters Details is a []FilterErrorDetail.
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}

// FilterErrorDetail is one rejected filter value. Part is the index of the
// rejected sub-input for multi-part filters such as ranges.
type FilterErrorDetail struct {
	Filter  string `json:"filter"`
	Code    string `json:"code"`
	Part    *int   `json:"part,omitempty"`
	Message string `json:"message"`
}
