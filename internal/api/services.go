package api

import (
	"github.com/skyblockhq/teamsvc/internal/service"
	"github.com/skyblockhq/teamsvc/internal/sse"
	"github.com/skyblockhq/teamsvc/internal/store"
	"github.com/skyblockhq/teamsvc/internal/store/sqlite"
)

// Services groups the dependencies the API server calls into.
type Services struct {
	Invite   *service.InviteService
	Invites  *store.Store  // pending invite store, for health checks
	Registry *sqlite.Store // island roster and player directory
	Events   *sse.Manager  // optional
}

// MessageResponse is a generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}
