package models

import "errors"

// Sentinel errors shared by services and handlers. Handlers map these onto
// HTTP statuses; batch jobs log and continue.
var (
	// ErrNotOwner: the entity belongs to a different user. Callers must not
	// mutate anything when they see this.
	ErrNotOwner = errors.New("entity does not belong to user")

	// ErrAlreadyCompleted: a mission was completed before this call; the
	// second completion is rejected with no state change.
	ErrAlreadyCompleted = errors.New("mission already completed")

	// ErrMissingAPIKey: no generation credential is configured. Raised before
	// any network or database effect.
	ErrMissingAPIKey = errors.New("generation api key not configured")

	// ErrGeneration: the text-generation service failed or was unreachable.
	ErrGeneration = errors.New("content generation failed")

	// ErrInvalidShape: the generated payload's top-level shape was not the
	// requested JSON structure. The whole operation aborts and rolls back.
	ErrInvalidShape = errors.New("generated content has invalid shape")

	// ErrOnboardingStep: the requested onboarding transition is not reachable
	// from the user's current status.
	ErrOnboardingStep = errors.New("onboarding step not available in current state")

	// ErrInsufficientCoins: shop purchase costs more than the user holds.
	ErrInsufficientCoins = errors.New("not enough coins")
)
