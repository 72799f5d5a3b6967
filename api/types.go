package api

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler    projectHandler
	engagementHandler engagementHandler
	healthHandler     healthHandler
}

// SuccessResponse is the envelope of every successful response
// @Description Success response structure
type SuccessResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"Projects fetched successfully"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message" example:"missing required field: title"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)
