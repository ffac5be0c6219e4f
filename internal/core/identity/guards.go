// Package identity contains the pure business logic for registration and
// administrative access.
// Guards are pure functions that evaluate preconditions without side effects.
package identity

import (
	"fmt"
	"slices"
	"strings"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// ReasonNoPhone is the rejection reason for a contact without a number.
const ReasonNoPhone = "contact has no phone number"

// RegisterContext provides context for registration guards.
type RegisterContext struct {
	SenderID       int64
	Phone          string
	ContactOwnerID int64 // user ID attached to the shared contact, 0 if none
}

// AdminContext provides context for administrative command guards.
type AdminContext struct {
	IdentityID int64
	Command    string
	AllowList  []int64
}

// CanRegister evaluates whether a shared contact can register the sender.
// Rules:
// - Phone must be present
// - The contact must belong to the sender (no registering someone else's number)
func CanRegister(ctx RegisterContext) GuardResult {
	if strings.TrimSpace(ctx.Phone) == "" {
		return GuardResult{
			Allowed: false,
			Reason:  ReasonNoPhone,
		}
	}

	if ctx.ContactOwnerID != 0 && ctx.ContactOwnerID != ctx.SenderID {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("contact belongs to %d, not sender %d", ctx.ContactOwnerID, ctx.SenderID),
		}
	}

	return GuardResult{Allowed: true}
}

// CanAdminister evaluates whether an identity may run an administrative command.
// Rules:
// - Identity must be on the static allow-list
func CanAdminister(ctx AdminContext) GuardResult {
	if !slices.Contains(ctx.AllowList, ctx.IdentityID) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("identity %d is not allowed to run %s", ctx.IdentityID, ctx.Command),
		}
	}

	return GuardResult{Allowed: true}
}
