package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skyblockhq/teamsvc/internal/domain"
	"github.com/skyblockhq/teamsvc/internal/store"
)

// inviteAttempt holds the facts gathered while checking one invite command.
type inviteAttempt struct {
	actorID  string
	islandID string
	rank     domain.Rank
	target   *domain.Player
}

func rejected(reason domain.RejectReason) *CreateInviteResult {
	return rejectedWith(&domain.Rejection{Reason: reason})
}

func rejectedWith(rej *domain.Rejection) *CreateInviteResult {
	return &CreateInviteResult{Outcome: OutcomeRejected, Rejection: rej}
}

// resolve runs the checks that read only the actor's island and the player
// directory. A non-nil result ends the attempt.
func (s *InviteService) resolve(ctx context.Context, req CreateInviteRequest) (*inviteAttempt, *CreateInviteResult, error) {
	attempt := &inviteAttempt{actorID: req.ActorID}

	eligible, err := s.islands.HasIslandOrTeam(ctx, req.ActorID)
	if err != nil {
		return nil, nil, fmt.Errorf("check actor island: %w", err)
	}
	if !eligible {
		return nil, rejected(domain.RejectNoGroup), nil
	}

	switch len(req.Args) {
	case 0:
		result, err := s.pendingInfo(ctx, req.ActorID)
		return nil, result, err
	case 1:
	default:
		return nil, &CreateInviteResult{Outcome: OutcomeUsage}, nil
	}

	attempt.islandID, err = s.islands.IslandOf(ctx, req.ActorID)
	if err != nil {
		return nil, nil, fmt.Errorf("load actor island: %w", err)
	}

	attempt.rank, err = s.islands.RankOf(ctx, attempt.islandID, req.ActorID)
	if err != nil {
		return nil, nil, fmt.Errorf("load actor rank: %w", err)
	}
	minRank, err := s.islands.MinInviteRank(ctx, attempt.islandID)
	if err != nil {
		return nil, nil, fmt.Errorf("load invite rank: %w", err)
	}
	if !attempt.rank.AtLeast(minRank) {
		return nil, rejectedWith(&domain.Rejection{
			Reason:       domain.RejectInsufficientRank,
			RequiredRank: minRank.Name(),
		}), nil
	}

	count, err := s.islands.MemberCount(ctx, attempt.islandID)
	if err != nil {
		return nil, nil, fmt.Errorf("count members: %w", err)
	}
	maxMembers, err := s.islands.MaxMembers(ctx, attempt.islandID, domain.RankMember)
	if err != nil {
		return nil, nil, fmt.Errorf("load member cap: %w", err)
	}
	if maxMembers >= 0 && count >= maxMembers {
		return nil, rejected(domain.RejectGroupFull), nil
	}

	name := req.Args[0]
	attempt.target, err = s.players.ResolveName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, rejectedWith(&domain.Rejection{
			Reason:     domain.RejectUnknownTarget,
			TargetName: name,
		}), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("resolve target: %w", err)
	}

	reachable, err := s.players.IsReachable(ctx, req.ActorID, attempt.target.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check target presence: %w", err)
	}
	if !reachable {
		return nil, rejected(domain.RejectTargetUnreachable), nil
	}

	if attempt.target.ID == req.ActorID {
		return nil, rejected(domain.RejectSelfInvite), nil
	}

	return attempt, nil, nil
}

// admit runs the checks that read shared invite state. It must be called with
// the target's lock held. The returned invite is the one currently pending
// for the target, if any.
func (s *InviteService) admit(ctx context.Context, attempt *inviteAttempt, interval time.Duration) (*CreateInviteResult, *domain.Invite, error) {
	if throttled, wait := s.cooldowns.Check(attempt.islandID, attempt.target.ID, interval); throttled {
		return rejectedWith(&domain.Rejection{
			Reason:           domain.RejectCooldownActive,
			RemainingSeconds: ceilSeconds(wait),
		}), nil, nil
	}

	grouped, err := s.islands.InTeam(ctx, attempt.target.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check target team: %w", err)
	}
	if grouped {
		return rejected(domain.RejectAlreadyGrouped), nil, nil
	}

	existing, err := s.invites.GetInvite(ctx, attempt.target.ID)
	switch {
	case errors.Is(err, store.ErrInviteNotFound):
		return nil, nil, nil
	case err != nil:
		return nil, nil, fmt.Errorf("load pending invite: %w", err)
	}
	if existing.SameOffer(attempt.actorID, domain.InviteTypeTeam) {
		return rejected(domain.RejectDuplicateInvite), nil, nil
	}
	return nil, existing, nil
}

// pendingInfo reports who invited the actor, if anyone.
func (s *InviteService) pendingInfo(ctx context.Context, actorID string) (*CreateInviteResult, error) {
	result := &CreateInviteResult{Outcome: OutcomeInfo}

	invite, err := s.invites.GetInvite(ctx, actorID)
	if errors.Is(err, store.ErrInviteNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load own invite: %w", err)
	}

	inviter := s.summary(ctx, invite.InviterID)
	result.PendingInvite = invite
	result.InvitedBy = &inviter
	return result, nil
}
