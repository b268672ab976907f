package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/skyblockhq/teamsvc/internal/domain"
	domainerrors "github.com/skyblockhq/teamsvc/internal/errors"
	"github.com/skyblockhq/teamsvc/internal/service"
)

func (s *Server) registerInviteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createInvite",
		Method:      http.MethodPost,
		Path:        "/api/v1/invites",
		Summary:     "Invite a player",
		Description: "Runs the team invite command for the acting player. With no arguments it reports the actor's own pending invite.",
		Tags:        []string{"Invites"},
		Middlewares: huma.Middlewares{s.inviteRateLimit},
	}, s.handleCreateInvite)

	huma.Register(s.api, huma.Operation{
		OperationID: "listInvites",
		Method:      http.MethodGet,
		Path:        "/api/v1/invites",
		Summary:     "List pending invites",
		Description: "Returns pending invites, optionally only those sent by one inviter",
		Tags:        []string{"Invites"},
	}, s.handleListInvites)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPendingInvite",
		Method:      http.MethodGet,
		Path:        "/api/v1/players/{id}/invite",
		Summary:     "Get pending invite",
		Description: "Returns the invite pending for a player",
		Tags:        []string{"Invites"},
	}, s.handleGetPendingInvite)

	huma.Register(s.api, huma.Operation{
		OperationID: "removePendingInvite",
		Method:      http.MethodDelete,
		Path:        "/api/v1/players/{id}/invite",
		Summary:     "Remove pending invite",
		Description: "Clears the invite pending for a player once it has been accepted, declined or revoked",
		Tags:        []string{"Invites"},
	}, s.handleRemovePendingInvite)
}

// === DTOs ===

// CreateInviteRequest is the request body for the invite command.
type CreateInviteRequest struct {
	Args []string `json:"args,omitempty" required:"false" doc:"Command arguments; none reports your own invite, a single player name invites that player"`
}

// CreateInviteInput wraps the invite command for Huma.
type CreateInviteInput struct {
	PlayerID string `header:"X-Player-ID" doc:"Acting player UUID"`
	Body     CreateInviteRequest `required:"false"`
}

// InviteResponse contains invite data in API responses.
type InviteResponse struct {
	ID        string    `json:"id" doc:"Invite ID"`
	Type      string    `json:"type" doc:"Invite type"`
	InviterID string    `json:"inviter_id" doc:"Player who sent the invite"`
	InviteeID string    `json:"invitee_id" doc:"Player the invite is for"`
	IslandID  string    `json:"island_id" doc:"Island the invitee would join"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// PlayerSummaryResponse identifies a player in invite messages.
type PlayerSummaryResponse struct {
	ID          string `json:"id" doc:"Player UUID"`
	Name        string `json:"name" doc:"Account name"`
	DisplayName string `json:"display_name" doc:"Name shown to players"`
}

// CreateInviteResponse describes what the invite command did.
type CreateInviteResponse struct {
	Outcome          string                 `json:"outcome" enum:"info,created,cancelled,not_executed" doc:"What the command did"`
	Invite           *InviteResponse        `json:"invite,omitempty" doc:"The new invite"`
	Actor            *PlayerSummaryResponse `json:"actor,omitempty" doc:"The inviter"`
	Target           *PlayerSummaryResponse `json:"target,omitempty" doc:"The invitee"`
	TargetOwnsIsland bool                   `json:"target_owns_island,omitempty" doc:"Accepting will discard the invitee's island"`
	Superseded       *InviteResponse        `json:"superseded,omitempty" doc:"Invite removed to make room for this one"`
	PendingInvite    *InviteResponse        `json:"pending_invite,omitempty" doc:"The actor's own pending invite"`
	InvitedBy        *PlayerSummaryResponse `json:"invited_by,omitempty" doc:"Who sent the actor's pending invite"`
}

// CreateInviteOutput wraps the invite command response for Huma.
type CreateInviteOutput struct {
	Status int
	Body   CreateInviteResponse
}

// ListInvitesInput contains parameters for listing invites.
type ListInvitesInput struct {
	Inviter string `query:"inviter" doc:"Only invites sent by this player UUID"`
}

// ListInvitesResponse contains a list of invites.
type ListInvitesResponse struct {
	Invites []InviteResponse `json:"invites" doc:"Pending invites"`
}

// ListInvitesOutput wraps the list invites response for Huma.
type ListInvitesOutput struct {
	Body ListInvitesResponse
}

// PlayerInviteInput addresses the pending invite of one player.
type PlayerInviteInput struct {
	ID string `path:"id" doc:"Invitee UUID"`
}

// InviteOutput wraps an invite response for Huma.
type InviteOutput struct {
	Body InviteResponse
}

// === Handlers ===

func (s *Server) handleCreateInvite(ctx context.Context, input *CreateInviteInput) (*CreateInviteOutput, error) {
	actorID, err := requirePlayer(ctx, input.PlayerID)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Invite.CreateInvite(ctx, service.CreateInviteRequest{
		ActorID:         actorID,
		Args:            input.Body.Args,
		CooldownSeconds: cooldownSeconds(s.opts.InviteCooldown),
	})
	if err != nil {
		return nil, s.handleError(err, "failed to create invite", "actor_id", actorID)
	}

	switch result.Outcome {
	case service.OutcomeUsage:
		return nil, domainerrors.Usage("usage: invite <player>")
	case service.OutcomeRejected:
		return nil, domainerrors.Rejected(result.Rejection)
	}

	status := http.StatusOK
	if result.Outcome == service.OutcomeCreated {
		status = http.StatusCreated
	}

	return &CreateInviteOutput{
		Status: status,
		Body: CreateInviteResponse{
			Outcome:          string(result.Outcome),
			Invite:           inviteResponse(result.Invite),
			Actor:            summaryResponse(result.Actor),
			Target:           summaryResponse(result.Target),
			TargetOwnsIsland: result.TargetOwnsIsland,
			Superseded:       inviteResponse(result.Superseded),
			PendingInvite:    inviteResponse(result.PendingInvite),
			InvitedBy:        summaryResponse(result.InvitedBy),
		},
	}, nil
}

func (s *Server) handleListInvites(ctx context.Context, input *ListInvitesInput) (*ListInvitesOutput, error) {
	inviterID := ""
	if input.Inviter != "" {
		var err error
		if inviterID, err = parsePlayerParam(input.Inviter); err != nil {
			return nil, err
		}
	}

	invites, err := s.services.Invite.ListInvites(ctx, inviterID)
	if err != nil {
		return nil, s.handleError(err, "failed to list invites")
	}

	resp := make([]InviteResponse, len(invites))
	for i, inv := range invites {
		resp[i] = *inviteResponse(inv)
	}
	return &ListInvitesOutput{Body: ListInvitesResponse{Invites: resp}}, nil
}

func (s *Server) handleGetPendingInvite(ctx context.Context, input *PlayerInviteInput) (*InviteOutput, error) {
	inviteeID, err := parsePlayerParam(input.ID)
	if err != nil {
		return nil, err
	}

	invite, err := s.services.Invite.GetPendingInvite(ctx, inviteeID)
	if err != nil {
		return nil, s.handleError(err, "failed to get invite", "invitee_id", inviteeID)
	}
	return &InviteOutput{Body: *inviteResponse(invite)}, nil
}

func (s *Server) handleRemovePendingInvite(ctx context.Context, input *PlayerInviteInput) (*InviteOutput, error) {
	inviteeID, err := parsePlayerParam(input.ID)
	if err != nil {
		return nil, err
	}

	invite, err := s.services.Invite.RemoveInvite(ctx, inviteeID)
	if err != nil {
		return nil, s.handleError(err, "failed to remove invite", "invitee_id", inviteeID)
	}
	return &InviteOutput{Body: *inviteResponse(invite)}, nil
}

func inviteResponse(inv *domain.Invite) *InviteResponse {
	if inv == nil {
		return nil
	}
	return &InviteResponse{
		ID:        inv.ID,
		Type:      string(inv.Type),
		InviterID: inv.InviterID,
		InviteeID: inv.InviteeID,
		IslandID:  inv.IslandID,
		CreatedAt: inv.CreatedAt,
	}
}

func summaryResponse(p *domain.PlayerSummary) *PlayerSummaryResponse {
	if p == nil {
		return nil
	}
	return &PlayerSummaryResponse{ID: p.ID, Name: p.Name, DisplayName: p.DisplayName}
}

// cooldownSeconds rounds the configured cooldown up to whole seconds so a
// sub-second value still throttles.
func cooldownSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
