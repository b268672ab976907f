// Package service implements team invitation business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/skyblockhq/teamsvc/internal/cooldown"
	"github.com/skyblockhq/teamsvc/internal/domain"
	domainerrors "github.com/skyblockhq/teamsvc/internal/errors"
	"github.com/skyblockhq/teamsvc/internal/id"
	"github.com/skyblockhq/teamsvc/internal/store"
	"github.com/skyblockhq/teamsvc/internal/validation"
)

// Islands is the island roster the invite checks consult.
type Islands interface {
	HasIslandOrTeam(ctx context.Context, playerID string) (bool, error)
	// IslandOf returns store.ErrNotFound when the player has no island.
	IslandOf(ctx context.Context, playerID string) (string, error)
	InTeam(ctx context.Context, playerID string) (bool, error)
	OwnsIsland(ctx context.Context, playerID string) (bool, error)
	MemberCount(ctx context.Context, islandID string) (int, error)
	// MaxMembers returns a negative value when the rank is not capped.
	MaxMembers(ctx context.Context, islandID string, rank domain.Rank) (int, error)
	RankOf(ctx context.Context, islandID, playerID string) (domain.Rank, error)
	MinInviteRank(ctx context.Context, islandID string) (domain.Rank, error)
}

// Players is the player directory. Lookups return store.ErrNotFound for
// unknown players.
type Players interface {
	ResolveName(ctx context.Context, name string) (*domain.Player, error)
	GetPlayer(ctx context.Context, id string) (*domain.Player, error)
	IsReachable(ctx context.Context, actorID, targetID string) (bool, error)
}

// HookBus offers a team event to veto listeners and reports whether the
// change may proceed.
type HookBus interface {
	Publish(ctx context.Context, event *domain.TeamEvent) bool
}

// Notifier tells players about invite changes. Delivery is best effort.
type Notifier interface {
	InviteReceived(invite *domain.Invite, inviter domain.PlayerSummary, ownsIsland bool)
	InviteSuperseded(previous, replacement *domain.Invite)
}

// Outcome classifies the result of a creation attempt.
type Outcome string

const (
	// OutcomeInfo reports the actor's own pending invite; nothing changed.
	OutcomeInfo Outcome = "info"
	// OutcomeUsage means the arguments were malformed.
	OutcomeUsage Outcome = "usage"
	// OutcomeRejected carries a Rejection.
	OutcomeRejected Outcome = "rejected"
	// OutcomeCancelled means a hook listener vetoed the invite.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeNotExecuted means the target disappeared before commit.
	OutcomeNotExecuted Outcome = "not_executed"
	// OutcomeCreated means a new invite is pending.
	OutcomeCreated Outcome = "created"
)

// CreateInviteRequest is one invite command. Args holds the words after the
// command; a single word names the target.
type CreateInviteRequest struct {
	ActorID         string   `json:"actor_id" validate:"required"`
	Args            []string `json:"args"`
	CooldownSeconds int      `json:"cooldown_seconds" validate:"gte=0"`
}

// CreateInviteResult describes what a creation attempt did.
type CreateInviteResult struct {
	Outcome   Outcome           `json:"outcome"`
	Rejection *domain.Rejection `json:"rejection,omitempty"`

	// Set when Outcome is created.
	Invite *domain.Invite        `json:"invite,omitempty"`
	Actor  *domain.PlayerSummary `json:"actor,omitempty"`
	Target *domain.PlayerSummary `json:"target,omitempty"`
	// TargetOwnsIsland warns that accepting will discard the target's island.
	TargetOwnsIsland bool `json:"target_owns_island,omitempty"`

	// Superseded is the invite removed to make room for this one. It stays
	// removed even when the new invite is cancelled.
	Superseded *domain.Invite `json:"superseded,omitempty"`

	// Set when Outcome is info.
	PendingInvite *domain.Invite        `json:"pending_invite,omitempty"`
	InvitedBy     *domain.PlayerSummary `json:"invited_by,omitempty"`
}

// InviteService creates and manages pending team invites.
type InviteService struct {
	invites   *store.Store
	islands   Islands
	players   Players
	cooldowns *cooldown.Tracker
	hooks     HookBus
	notifier  Notifier
	validator *validation.Validator
	logger    *slog.Logger

	targets *keyedMutex
	now     func() time.Time
}

// NewInviteService creates a new invite service. hooks and notifier may be nil.
func NewInviteService(
	invites *store.Store,
	islands Islands,
	players Players,
	cooldowns *cooldown.Tracker,
	hooks HookBus,
	notifier Notifier,
	logger *slog.Logger,
) *InviteService {
	return &InviteService{
		invites:   invites,
		islands:   islands,
		players:   players,
		cooldowns: cooldowns,
		hooks:     hooks,
		notifier:  notifier,
		validator: validation.New(),
		logger:    logger,
		targets:   newKeyedMutex(),
		now:       time.Now,
	}
}

// CreateInvite runs one invite command for req.ActorID.
//
// Rejections, usage problems and vetoes are reported through the result.
// A non-nil error means the registry or invite store failed.
func (s *InviteService) CreateInvite(ctx context.Context, req CreateInviteRequest) (*CreateInviteResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attempt, result, err := s.resolve(ctx, req)
	if err != nil || result != nil {
		return result, err
	}

	unlock := s.targets.Lock(attempt.target.ID)
	defer unlock()

	result, existing, err := s.admit(ctx, attempt, time.Duration(req.CooldownSeconds)*time.Second)
	if err != nil || result != nil {
		return result, err
	}

	// The target may have been deleted while we waited for the lock.
	if _, err := s.players.GetPlayer(ctx, attempt.target.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &CreateInviteResult{Outcome: OutcomeNotExecuted}, nil
		}
		return nil, fmt.Errorf("reload target: %w", err)
	}

	result = &CreateInviteResult{}

	if existing != nil {
		if err := s.invites.RemoveInvite(ctx, existing.InviteeID); err != nil {
			return nil, fmt.Errorf("remove superseded invite: %w", err)
		}
		result.Superseded = existing
	}

	if s.hooks != nil {
		event := &domain.TeamEvent{
			IslandID:       attempt.islandID,
			Reason:         domain.TeamEventInvite,
			ActorID:        attempt.actorID,
			InvolvedPlayer: attempt.target.ID,
		}
		if !s.hooks.Publish(ctx, event) {
			result.Outcome = OutcomeCancelled
			s.notifySuperseded(existing, nil)
			return result, nil
		}
	}

	inviteID, err := id.Generate(id.PrefixInvite)
	if err != nil {
		return nil, fmt.Errorf("generate invite ID: %w", err)
	}
	invite := &domain.Invite{
		ID:        inviteID,
		Type:      domain.InviteTypeTeam,
		InviterID: attempt.actorID,
		InviteeID: attempt.target.ID,
		IslandID:  attempt.islandID,
		CreatedAt: s.now(),
	}
	if err := s.invites.PutInvite(ctx, invite); err != nil {
		return nil, fmt.Errorf("store invite: %w", err)
	}

	ownsIsland, err := s.islands.OwnsIsland(ctx, attempt.target.ID)
	if err != nil {
		return nil, fmt.Errorf("check target island: %w", err)
	}

	actor := s.summary(ctx, attempt.actorID)
	target := attempt.target.Summary()

	result.Outcome = OutcomeCreated
	result.Invite = invite
	result.Actor = &actor
	result.Target = &target
	result.TargetOwnsIsland = ownsIsland

	if s.logger != nil {
		s.logger.Info("invite created",
			"invite_id", invite.ID,
			"island_id", invite.IslandID,
			"inviter_id", invite.InviterID,
			"invitee_id", invite.InviteeID,
			"superseded", existing != nil,
		)
	}

	s.notifySuperseded(existing, invite)
	if s.notifier != nil {
		s.notifier.InviteReceived(invite, actor, ownsIsland)
	}

	return result, nil
}

func (s *InviteService) notifySuperseded(previous, replacement *domain.Invite) {
	if previous == nil || s.notifier == nil {
		return
	}
	s.notifier.InviteSuperseded(previous, replacement)
}

// summary looks up a player for display, falling back to the bare ID.
func (s *InviteService) summary(ctx context.Context, playerID string) domain.PlayerSummary {
	p, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		if s.logger != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("player lookup failed", "player_id", playerID, "error", err)
		}
		return domain.PlayerSummary{ID: playerID, Name: playerID, DisplayName: playerID}
	}
	return p.Summary()
}

// GetPendingInvite returns the invite pending for inviteeID.
func (s *InviteService) GetPendingInvite(ctx context.Context, inviteeID string) (*domain.Invite, error) {
	invite, err := s.invites.GetInvite(ctx, inviteeID)
	if err != nil {
		if errors.Is(err, store.ErrInviteNotFound) {
			return nil, domainerrors.NotFound("no pending invite")
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return invite, nil
}

// RemoveInvite clears the invite pending for inviteeID and returns it.
// Accept, reject and revoke flows call this once they have acted on the invite.
func (s *InviteService) RemoveInvite(ctx context.Context, inviteeID string) (*domain.Invite, error) {
	unlock := s.targets.Lock(inviteeID)
	defer unlock()

	invite, err := s.GetPendingInvite(ctx, inviteeID)
	if err != nil {
		return nil, err
	}
	if err := s.invites.RemoveInvite(ctx, inviteeID); err != nil {
		return nil, fmt.Errorf("remove invite: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("invite removed", "invite_id", invite.ID, "invitee_id", inviteeID)
	}
	return invite, nil
}

// ListInvites returns pending invites, optionally only those sent by inviterID.
func (s *InviteService) ListInvites(ctx context.Context, inviterID string) ([]*domain.Invite, error) {
	var (
		invites []*domain.Invite
		err     error
	)
	if inviterID != "" {
		invites, err = s.invites.ListInvitesByInviter(ctx, inviterID)
	} else {
		invites, err = s.invites.ListInvites(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
