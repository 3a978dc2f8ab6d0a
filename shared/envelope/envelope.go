// Package envelope defines the uniform response wrapper used by all three
// services and by the clients that consume them.
package envelope

import (
	"encoding/json"
	"net/http"
)

// Response wraps every API payload. Data is nil on failure, Message is empty
// on success.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// OK builds a success response around data.
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Fail builds a failure response with a human-readable reason.
func Fail(message string) Response {
	return Response{Success: false, Message: message}
}

// WriteJSON writes resp with the given HTTP status.
func WriteJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteData is shorthand for a success response.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, OK(data))
}

// WriteError is shorthand for a failure response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Fail(message))
}
