package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope - формат всех ответов API, фронтенд разбирает именно его.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
	Type    string      `json:"type,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func OK(w http.ResponseWriter, r *http.Request, code int, message string, data interface{}) {
	JSON(w, r, code, Envelope{Success: true, Message: message, Data: data})
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, Envelope{Success: false, Message: message})
}

func TypedError(w http.ResponseWriter, r *http.Request, code int, message, errType string) {
	JSON(w, r, code, Envelope{Success: false, Message: message, Type: errType})
}

func ValidationFailed(w http.ResponseWriter, r *http.Request, message string, errs []string) {
	JSON(w, r, http.StatusBadRequest, Envelope{
		Success: false,
		Message: message,
		Errors:  errs,
		Type:    "VALIDATION_ERROR",
	})
}
