package utils

import "time"

// APIResponse is the JSON envelope of every API reply except the PNG, PDF and
// event-stream endpoints.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data, Timestamp: time.Now().UTC()}
}

// ErrorResponse pairs the message shown to the traveller with the technical
// detail.
func ErrorResponse(message, detail string) APIResponse {
	return APIResponse{Message: message, Error: detail, Timestamp: time.Now().UTC()}
}

// WithRequestID tags the reply with the id the request was logged under.
func (r APIResponse) WithRequestID(id string) APIResponse {
	r.RequestID = id
	return r
}
