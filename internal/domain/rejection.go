package domain

import "fmt"

// RejectReason enumerates why an invite creation was refused.
// The boundary layer maps each reason to user-facing text.
type RejectReason string

const (
	RejectNoGroup           RejectReason = "NO_GROUP"
	RejectInsufficientRank  RejectReason = "INSUFFICIENT_RANK"
	RejectGroupFull         RejectReason = "GROUP_FULL"
	RejectUnknownTarget     RejectReason = "UNKNOWN_TARGET"
	RejectTargetUnreachable RejectReason = "TARGET_UNREACHABLE"
	RejectSelfInvite        RejectReason = "SELF_INVITE"
	RejectCooldownActive    RejectReason = "COOLDOWN_ACTIVE"
	RejectAlreadyGrouped    RejectReason = "ALREADY_GROUPED"
	RejectDuplicateInvite   RejectReason = "DUPLICATE_INVITE"
)

// Rejection is an expected business outcome, not a failure.
type Rejection struct {
	Reason RejectReason `json:"reason"`

	// RequiredRank is set for INSUFFICIENT_RANK.
	RequiredRank string `json:"required_rank,omitempty"`
	// TargetName echoes the supplied name for UNKNOWN_TARGET.
	TargetName string `json:"target_name,omitempty"`
	// RemainingSeconds is set for COOLDOWN_ACTIVE.
	RemainingSeconds int `json:"remaining_seconds,omitempty"`
}

func (r *Rejection) String() string {
	switch r.Reason {
	case RejectInsufficientRank:
		return fmt.Sprintf("%s (requires %s)", r.Reason, r.RequiredRank)
	case RejectUnknownTarget:
		return fmt.Sprintf("%s (%s)", r.Reason, r.TargetName)
	case RejectCooldownActive:
		return fmt.Sprintf("%s (%ds remaining)", r.Reason, r.RemainingSeconds)
	default:
		return string(r.Reason)
	}
}
