// Package api contains the request/response types and status mapping shared by
// the HTTP server and the Lambda handler.
package api

import "github.com/kylejryan/vehicle-claims-api/internal/claims"

// Response messages fixed by the public API.
const (
	MsgClaimNotFound = "Claim not found"
	MsgClaimDeleted  = "Claim deleted successfully"
)

// ClaimRequest is the JSON body of POST /api/claims and PUT /api/claims/:id.
type ClaimRequest = claims.Fields

// MessageResponse is the body of every error and of the delete confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// PingResponse is the body of GET /ping.
type PingResponse struct {
	Pong bool   `json:"pong"`
	Time string `json:"time"`
}
