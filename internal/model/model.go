// Package model holds the domain types shared by the repository, service
// and handler layers.
package model

// MessageResponse is the body of responses that only carry a message.
type MessageResponse struct {
	Message string `json:"message"`
}
