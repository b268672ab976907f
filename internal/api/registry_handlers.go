package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/skyblockhq/teamsvc/internal/domain"
	domainerrors "github.com/skyblockhq/teamsvc/internal/errors"
	"github.com/skyblockhq/teamsvc/internal/id"
	"github.com/skyblockhq/teamsvc/internal/store"
)

func (s *Server) registerPlayerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPlayers",
		Method:      http.MethodGet,
		Path:        "/api/v1/players",
		Summary:     "List players",
		Description: "Returns every player known to the directory",
		Tags:        []string{"Players"},
	}, s.handleListPlayers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlayer",
		Method:      http.MethodGet,
		Path:        "/api/v1/players/{id}",
		Summary:     "Get player",
		Description: "Returns a player by UUID",
		Tags:        []string{"Players"},
	}, s.handleGetPlayer)

	huma.Register(s.api, huma.Operation{
		OperationID: "upsertPlayer",
		Method:      http.MethodPut,
		Path:        "/api/v1/players/{id}",
		Summary:     "Register player",
		Description: "Creates or updates a player with its name and presence",
		Tags:        []string{"Players"},
	}, s.handleUpsertPlayer)

	huma.Register(s.api, huma.Operation{
		OperationID: "setPresence",
		Method:      http.MethodPut,
		Path:        "/api/v1/players/{id}/presence",
		Summary:     "Update presence",
		Description: "Marks a player online, offline or vanished",
		Tags:        []string{"Players"},
	}, s.handleSetPresence)
}

func (s *Server) registerIslandRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createIsland",
		Method:      http.MethodPost,
		Path:        "/api/v1/islands",
		Summary:     "Create island",
		Description: "Creates an island owned by a player",
		Tags:        []string{"Islands"},
	}, s.handleCreateIsland)

	huma.Register(s.api, huma.Operation{
		OperationID: "getIsland",
		Method:      http.MethodGet,
		Path:        "/api/v1/islands/{id}",
		Summary:     "Get island",
		Description: "Returns an island with its roster",
		Tags:        []string{"Islands"},
	}, s.handleGetIsland)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateIsland",
		Method:      http.MethodPut,
		Path:        "/api/v1/islands/{id}",
		Summary:     "Update island",
		Description: "Updates island settings or transfers ownership",
		Tags:        []string{"Islands"},
	}, s.handleUpdateIsland)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteIsland",
		Method:      http.MethodDelete,
		Path:        "/api/v1/islands/{id}",
		Summary:     "Delete island",
		Description: "Deletes an island and its roster",
		Tags:        []string{"Islands"},
	}, s.handleDeleteIsland)

	huma.Register(s.api, huma.Operation{
		OperationID: "setIslandMember",
		Method:      http.MethodPut,
		Path:        "/api/v1/islands/{id}/members/{playerID}",
		Summary:     "Set member rank",
		Description: "Adds a player to an island or changes their rank",
		Tags:        []string{"Islands"},
	}, s.handleSetMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeIslandMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/islands/{id}/members/{playerID}",
		Summary:     "Remove member",
		Description: "Removes a player from an island",
		Tags:        []string{"Islands"},
	}, s.handleRemoveMember)
}

// === DTOs ===

// PlayerResponse contains player data in API responses.
type PlayerResponse struct {
	ID          string    `json:"id" doc:"Player UUID"`
	Name        string    `json:"name" doc:"Account name"`
	DisplayName string    `json:"display_name" doc:"Name shown to players"`
	Online      bool      `json:"online" doc:"Player is connected"`
	Hidden      bool      `json:"hidden" doc:"Player is vanished"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update time"`
}

// PlayerOutput wraps a player response for Huma.
type PlayerOutput struct {
	Body PlayerResponse
}

// ListPlayersOutput wraps the player list for Huma.
type ListPlayersOutput struct {
	Body struct {
		Players []PlayerResponse `json:"players" doc:"Known players"`
	}
}

// GetPlayerInput contains parameters for getting a player.
type GetPlayerInput struct {
	ID string `path:"id" doc:"Player UUID"`
}

// UpsertPlayerRequest is the request body for registering a player.
type UpsertPlayerRequest struct {
	Name        string `json:"name" validate:"required,playername" doc:"Account name"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=64" doc:"Name shown to players"`
	Online      bool   `json:"online" doc:"Player is connected"`
	Hidden      bool   `json:"hidden,omitempty" doc:"Player is vanished"`
}

// UpsertPlayerInput wraps the register player request for Huma.
type UpsertPlayerInput struct {
	ID   string `path:"id" doc:"Player UUID"`
	Body UpsertPlayerRequest
}

// SetPresenceRequest is the request body for presence updates.
type SetPresenceRequest struct {
	Online bool `json:"online" doc:"Player is connected"`
	Hidden bool `json:"hidden" doc:"Player is vanished"`
}

// SetPresenceInput wraps the presence request for Huma.
type SetPresenceInput struct {
	ID   string `path:"id" doc:"Player UUID"`
	Body SetPresenceRequest
}

// IslandRequest is the request body for creating or updating an island.
type IslandRequest struct {
	OwnerID       string `json:"owner_id" validate:"required,uuid" doc:"Owner UUID"`
	Name          string `json:"name" validate:"required,max=64" doc:"Island name"`
	MaxMembers    int    `json:"max_members,omitempty" validate:"gte=0,lte=100" doc:"Roster cap; 0 uses the server default"`
	MinInviteRank int    `json:"min_invite_rank,omitempty" validate:"omitempty,rank" doc:"Lowest rank allowed to invite; 0 uses the server default"`
}

// CreateIslandInput wraps the create island request for Huma.
type CreateIslandInput struct {
	Body IslandRequest
}

// UpdateIslandInput wraps the update island request for Huma.
type UpdateIslandInput struct {
	ID   string `path:"id" doc:"Island ID"`
	Body IslandRequest
}

// IslandInput addresses one island.
type IslandInput struct {
	ID string `path:"id" doc:"Island ID"`
}

// MemberResponse is one roster entry.
type MemberResponse struct {
	PlayerID string    `json:"player_id" doc:"Player UUID"`
	Rank     int       `json:"rank" doc:"Rank value"`
	RankName string    `json:"rank_name" doc:"Rank name"`
	JoinedAt time.Time `json:"joined_at" doc:"When the player joined"`
}

// IslandResponse contains island data in API responses.
type IslandResponse struct {
	ID            string           `json:"id" doc:"Island ID"`
	OwnerID       string           `json:"owner_id" doc:"Owner UUID"`
	Name          string           `json:"name" doc:"Island name"`
	MaxMembers    int              `json:"max_members" doc:"Roster cap; 0 uses the server default"`
	MinInviteRank int              `json:"min_invite_rank" doc:"Lowest rank allowed to invite; 0 uses the server default"`
	Members       []MemberResponse `json:"members,omitempty" doc:"Roster, highest rank first"`
	CreatedAt     time.Time        `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time        `json:"updated_at" doc:"Last update time"`
}

// IslandOutput wraps an island response for Huma.
type IslandOutput struct {
	Body IslandResponse
}

// SetMemberRequest is the request body for roster changes.
type SetMemberRequest struct {
	Rank int `json:"rank" validate:"required,rank" doc:"Rank value"`
}

// SetMemberInput wraps a roster change for Huma.
type SetMemberInput struct {
	ID       string `path:"id" doc:"Island ID"`
	PlayerID string `path:"playerID" doc:"Player UUID"`
	Body     SetMemberRequest
}

// RemoveMemberInput addresses one roster entry.
type RemoveMemberInput struct {
	ID       string `path:"id" doc:"Island ID"`
	PlayerID string `path:"playerID" doc:"Player UUID"`
}

// === Player handlers ===

func (s *Server) handleListPlayers(ctx context.Context, _ *struct{}) (*ListPlayersOutput, error) {
	players, err := s.services.Registry.ListPlayers(ctx)
	if err != nil {
		return nil, s.handleError(err, "failed to list players")
	}

	out := &ListPlayersOutput{}
	out.Body.Players = make([]PlayerResponse, len(players))
	for i, p := range players {
		out.Body.Players[i] = playerResponse(p)
	}
	return out, nil
}

func (s *Server) handleGetPlayer(ctx context.Context, input *GetPlayerInput) (*PlayerOutput, error) {
	playerID, err := parsePlayerParam(input.ID)
	if err != nil {
		return nil, err
	}

	p, err := s.services.Registry.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, s.handleError(err, "failed to get player", "player_id", playerID)
	}
	return &PlayerOutput{Body: playerResponse(p)}, nil
}

func (s *Server) handleUpsertPlayer(ctx context.Context, input *UpsertPlayerInput) (*PlayerOutput, error) {
	playerID, err := parsePlayerParam(input.ID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	p := &domain.Player{
		ID:          playerID,
		Name:        input.Body.Name,
		DisplayName: input.Body.DisplayName,
		Online:      input.Body.Online,
		Hidden:      input.Body.Hidden,
	}
	if err := s.services.Registry.UpsertPlayer(ctx, p); err != nil {
		if errors.Is(err, store.ErrAlreadyTaken) {
			return nil, domainerrors.Conflict("player name is already registered")
		}
		return nil, s.handleError(err, "failed to register player", "player_id", playerID)
	}
	return &PlayerOutput{Body: playerResponse(p)}, nil
}

func (s *Server) handleSetPresence(ctx context.Context, input *SetPresenceInput) (*PlayerOutput, error) {
	playerID, err := parsePlayerParam(input.ID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Registry.SetPresence(ctx, playerID, input.Body.Online, input.Body.Hidden); err != nil {
		return nil, s.handleError(err, "failed to update presence", "player_id", playerID)
	}

	p, err := s.services.Registry.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, s.handleError(err, "failed to get player", "player_id", playerID)
	}
	return &PlayerOutput{Body: playerResponse(p)}, nil
}

// === Island handlers ===

func (s *Server) handleCreateIsland(ctx context.Context, input *CreateIslandInput) (*IslandOutput, error) {
	islandID, err := id.Generate(id.PrefixIsland)
	if err != nil {
		return nil, s.handleError(err, "failed to generate island ID")
	}
	return s.saveIsland(ctx, islandID, input.Body)
}

func (s *Server) handleUpdateIsland(ctx context.Context, input *UpdateIslandInput) (*IslandOutput, error) {
	if _, err := s.services.Registry.GetIsland(ctx, input.ID); err != nil {
		return nil, s.handleError(err, "failed to get island", "island_id", input.ID)
	}
	return s.saveIsland(ctx, input.ID, input.Body)
}

func (s *Server) saveIsland(ctx context.Context, islandID string, req IslandRequest) (*IslandOutput, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	ownerID, err := parsePlayerParam(req.OwnerID)
	if err != nil {
		return nil, err
	}

	island := &domain.Island{
		ID:            islandID,
		OwnerID:       ownerID,
		Name:          req.Name,
		MaxMembers:    req.MaxMembers,
		MinInviteRank: domain.Rank(req.MinInviteRank),
	}
	if err := s.services.Registry.UpsertIsland(ctx, island); err != nil {
		if errors.Is(err, store.ErrAlreadyTaken) {
			return nil, domainerrors.Conflict("owner already has an island or team")
		}
		return nil, s.handleError(err, "failed to save island", "island_id", islandID)
	}

	return s.islandOutput(ctx, islandID)
}

func (s *Server) handleGetIsland(ctx context.Context, input *IslandInput) (*IslandOutput, error) {
	return s.islandOutput(ctx, input.ID)
}

func (s *Server) handleDeleteIsland(ctx context.Context, input *IslandInput) (*MessageOutput, error) {
	if err := s.services.Registry.DeleteIsland(ctx, input.ID); err != nil {
		return nil, s.handleError(err, "failed to delete island", "island_id", input.ID)
	}
	return &MessageOutput{Body: MessageResponse{Message: "Island deleted"}}, nil
}

func (s *Server) handleSetMember(ctx context.Context, input *SetMemberInput) (*IslandOutput, error) {
	playerID, err := parsePlayerParam(input.PlayerID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	if err := s.services.Registry.SetMember(ctx, input.ID, playerID, domain.Rank(input.Body.Rank)); err != nil {
		if errors.Is(err, store.ErrOwnerMembership) {
			return nil, domainerrors.Conflict("ownership changes go through the island owner field")
		}
		if errors.Is(err, store.ErrAlreadyTaken) {
			return nil, domainerrors.Conflict("player is already on another team")
		}
		return nil, s.handleError(err, "failed to set member", "island_id", input.ID, "player_id", playerID)
	}
	return s.islandOutput(ctx, input.ID)
}

func (s *Server) handleRemoveMember(ctx context.Context, input *RemoveMemberInput) (*IslandOutput, error) {
	playerID, err := parsePlayerParam(input.PlayerID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Registry.RemoveMember(ctx, input.ID, playerID); err != nil {
		if errors.Is(err, store.ErrOwnerMembership) {
			return nil, domainerrors.Conflict("the owner cannot leave the island")
		}
		return nil, s.handleError(err, "failed to remove member", "island_id", input.ID, "player_id", playerID)
	}
	return s.islandOutput(ctx, input.ID)
}

func (s *Server) islandOutput(ctx context.Context, islandID string) (*IslandOutput, error) {
	island, err := s.services.Registry.GetIsland(ctx, islandID)
	if err != nil {
		return nil, s.handleError(err, "failed to get island", "island_id", islandID)
	}
	members, err := s.services.Registry.Members(ctx, islandID)
	if err != nil {
		return nil, s.handleError(err, "failed to list members", "island_id", islandID)
	}

	resp := IslandResponse{
		ID:            island.ID,
		OwnerID:       island.OwnerID,
		Name:          island.Name,
		MaxMembers:    island.MaxMembers,
		MinInviteRank: int(island.MinInviteRank),
		Members:       make([]MemberResponse, len(members)),
		CreatedAt:     island.CreatedAt,
		UpdatedAt:     island.UpdatedAt,
	}
	for i, m := range members {
		resp.Members[i] = MemberResponse{
			PlayerID: m.PlayerID,
			Rank:     int(m.Rank),
			RankName: m.Rank.Name(),
			JoinedAt: m.JoinedAt,
		}
	}
	return &IslandOutput{Body: resp}, nil
}

func playerResponse(p *domain.Player) PlayerResponse {
	return PlayerResponse{
		ID:          p.ID,
		Name:        p.Name,
		DisplayName: p.Label(),
		Online:      p.Online,
		Hidden:      p.Hidden,
		UpdatedAt:   p.UpdatedAt,
	}
}
