package response

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Response is the error payload returned to clients. Error carries the
// category, Message the human-readable explanation; internal details never
// leak into either.
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
}

var EmptyRequestBodyResponse = Response{
	Error:   "Bad Request",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Error:   "Bad Request",
	Message: "Invalid request body.",
}

var ResourceNotFoundResponse = Response{
	Error:   "Not Found",
	Message: "Shortcode does not exist.",
}

var ShortCodeConflictResponse = Response{
	Error:   "Conflict",
	Message: "Shortcode already in use.",
}

var URLExpiredResponse = Response{
	Error:   "Gone",
	Message: "Shortcode has expired.",
}

var ServerErrorResponse = Response{
	Error:   "Internal Server Error",
	Message: "An internal server error occurred. Please try again later.",
}

// ValidationErrorResponse converts validation errors into a client-facing
// payload with one detail entry per invalid field.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Error:   "Bad Request",
		Message: "Request validation failed.",
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, err := range validationErrs {
			resp.Details = append(resp.Details, map[string]string{
				"field":   err.Field(),
				"message": fmt.Sprintf("failed on the '%s' rule", err.Tag()),
			})
		}
	}

	return resp
}
