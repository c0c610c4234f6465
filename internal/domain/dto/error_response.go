package dto

import "time"

// ErrorResponse is the JSON body of every failed API call.
//
// Fields:
//   - Message: short, user-facing description.
//   - ErrorDetails: underlying error text, omitted when empty.
//   - Timestamp: when the error was produced (UTC).
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid configuration"`
	ErrorDetails string    `json:"error,omitempty" example:"tick size must be positive, got 0"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewErrorResponse builds an ErrorResponse; err may be nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}

func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}
