package chatapi

import (
	"fmt"
)

// APIError is returned when the backend answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chatbot api error: %s", e.Status)
	}
	return fmt.Sprintf("chatbot api error: %s: %s", e.Status, e.Message)
}
