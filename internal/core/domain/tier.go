package domain

import "time"

// TierStatus is the lifecycle state shared by every tier and sub-check.
type TierStatus string

const (
	StatusNotStarted TierStatus = "not_started"
	StatusPending    TierStatus = "pending"
	StatusVerified   TierStatus = "verified"
	StatusRejected   TierStatus = "rejected"
)

// validTransitions defines the allowed tier state machine transitions.
// rejected -> pending is the resubmission path.
var validTransitions = map[TierStatus][]TierStatus{
	StatusNotStarted: {StatusPending, StatusVerified, StatusRejected},
	StatusPending:    {StatusPending, StatusVerified, StatusRejected},
	StatusRejected:   {StatusPending},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s TierStatus) CanTransitionTo(next TierStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s is verified or rejected.
func (s TierStatus) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// TierStatuses is a snapshot of tier statuses keyed by tier.
type TierStatuses map[Tier]TierStatus

// Tier1Flags are the constituent facts of tier1.
type Tier1Flags struct {
	Email bool
	Phone bool
	NIN   bool
}

// RecomputeTier1 derives the tier1 status from its flags. Tier1 is never
// rejected: failed checks leave the flags untouched.
func RecomputeTier1(f Tier1Flags) TierStatus {
	switch {
	case f.Email && f.Phone && f.NIN:
		return StatusVerified
	case f.Email || f.Phone || f.NIN:
		return StatusPending
	default:
		return StatusNotStarted
	}
}

// Tier3SubChecks are the constituent sub-check statuses of tier3.
type Tier3SubChecks struct {
	BVN         TierStatus
	BankAccount TierStatus
	Business    TierStatus
}

// RecomputeTier3 is verified iff all three sub-checks are verified, rejected
// iff any is definitively rejected, and pending otherwise.
func RecomputeTier3(s Tier3SubChecks) TierStatus {
	all := []TierStatus{s.BVN, s.BankAccount, s.Business}
	verified := 0
	for _, st := range all {
		switch st {
		case StatusRejected:
			return StatusRejected
		case StatusVerified:
			verified++
		}
	}
	if verified == len(all) {
		return StatusVerified
	}
	return StatusPending
}

// CanEnterTier reports whether tier t may move to pending or beyond given the
// current tier statuses.
func CanEnterTier(t Tier, current TierStatuses) bool {
	pre, ok := t.Prerequisite()
	if !ok {
		return true
	}
	return current[pre] == StatusVerified
}

// EnsureCanEnter returns a PreconditionError naming the missing prerequisite
// when t cannot be entered.
func EnsureCanEnter(t Tier, current TierStatuses) error {
	if CanEnterTier(t, current) {
		return nil
	}
	pre, _ := t.Prerequisite()
	return &PreconditionError{Tier: t, Missing: pre}
}

// RequiredTiers returns the tiers a role must complete. Tier3 is optional
// for every role and only unlocks monthly rent.
func RequiredTiers(role string) []Tier {
	switch role {
	case RoleAdmin:
		return nil
	case RoleOwner:
		return []Tier{Tier1, Tier2}
	default:
		return []Tier{Tier1}
	}
}

// ComputeOverallStatus projects the tier statuses for role into a single
// status. It is never stored.
func ComputeOverallStatus(role string, tiers TierStatuses) OverallStatus {
	required := RequiredTiers(role)
	if len(required) == 0 {
		return OverallNotRequired
	}

	verified, pending := 0, 0
	for _, t := range required {
		switch tiers[t] {
		case StatusVerified:
			verified++
		case StatusPending:
			pending++
		}
	}

	switch {
	case verified == len(required):
		return OverallComplete
	case pending > 0:
		return OverallPending
	default:
		return OverallIncomplete
	}
}

// MissingTiers returns, in request order, every tier in want that is not
// verified. A nil identity is missing everything.
func MissingTiers(identity *UserIdentity, want []Tier) []Tier {
	missing := make([]Tier, 0, len(want))
	for _, t := range want {
		if identity == nil || identity.Status(t) != StatusVerified {
			missing = append(missing, t)
		}
	}
	return missing
}

// ApplyTier1 recomputes tier1 after any flag change. CompletedAt records the
// first completion only and survives a later reopen by a phone override.
// It reports whether this call completed tier1 for the first time.
func (u *UserIdentity) ApplyTier1(now time.Time) bool {
	u.Tier1.Status = RecomputeTier1(u.Tier1.Flags())
	u.UpdatedAt = now
	if u.Tier1.Status == StatusVerified && u.Tier1.CompletedAt == nil {
		u.Tier1.CompletedAt = &now
		return true
	}
	return false
}

// ApplyTier3 recomputes tier3 from its sub-checks and stamps CompletedAt on
// the first transition to verified.
func (u *UserIdentity) ApplyTier3(now time.Time) bool {
	prev := u.Tier3.Status
	u.Tier3.Status = RecomputeTier3(u.Tier3.SubChecks())
	u.UpdatedAt = now
	if u.Tier3.Status == StatusVerified && prev != StatusVerified {
		u.Tier3.CompletedAt = &now
		return true
	}
	return false
}
