// Package dto defines request and response shapes for the HTTP API.
package dto

// UserRequest is the body for POST and PUT /admin-api/users.
// Name and Role are optional on create; PUT treats an omitted Name as null
// and an omitted Role as "user".
type UserRequest struct {
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
	Role  string  `json:"role,omitempty"`
}

// DeleteResponse acknowledges a successful delete.
type DeleteResponse struct {
	Success bool `json:"success"`
}
