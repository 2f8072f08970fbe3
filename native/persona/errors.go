package persona

import "errors"

var (
	// ErrNilState reports an engine used before wiring its state backend.
	ErrNilState = errors.New("persona engine: state not configured")
	// ErrCustodyNotSet reports an engine without a configured custody account.
	ErrCustodyNotSet = errors.New("persona engine: custody account not configured")
	// ErrTreasuryNotSet reports an engine without a protocol treasury account.
	ErrTreasuryNotSet = errors.New("persona engine: protocol treasury not configured")
	// ErrIdentityNotSet reports an engine without an identity registry.
	ErrIdentityNotSet = errors.New("persona engine: identity registry not configured")
	// ErrVenueNotSet reports graduation without a liquidity venue wired.
	ErrVenueNotSet = errors.New("persona engine: liquidity venue not configured")

	// ErrInvalidName reports a persona name outside the 1-32 char bounds.
	ErrInvalidName = errors.New("persona engine: invalid name length")
	// ErrInvalidSymbol reports a symbol outside the 1-10 char bounds.
	ErrInvalidSymbol = errors.New("persona engine: invalid symbol length")
	// ErrMetadataMismatch reports metadata key/value slices of unequal length.
	ErrMetadataMismatch = errors.New("persona engine: metadata keys and values mismatch")
	// ErrPersonaNotFound reports operations against an unknown persona id.
	ErrPersonaNotFound = errors.New("persona engine: persona not found")
	// ErrInvalidRecipient reports the zero address as purchase recipient.
	ErrInvalidRecipient = errors.New("persona engine: invalid recipient")
	// ErrInvalidAmount reports a non-positive purchase amount.
	ErrInvalidAmount = errors.New("persona engine: amount must be positive")
	// ErrUnauthorized reports a mutation attempted by a non-owner.
	ErrUnauthorized = errors.New("persona engine: caller does not own persona")

	// ErrExpiredDeadline reports a purchase submitted past its deadline.
	ErrExpiredDeadline = errors.New("persona engine: deadline expired")
	// ErrTradingOnLiquidityVenue reports a curve purchase after graduation.
	ErrTradingOnLiquidityVenue = errors.New("persona engine: trading moved to liquidity venue")
	// ErrInsufficientInput reports an input that nets to zero after fees.
	ErrInsufficientInput = errors.New("persona engine: insufficient input after fees")
	// ErrInsufficientOutput reports a quote below the buyer's minimum.
	ErrInsufficientOutput = errors.New("persona engine: output below minimum")
	// ErrInsufficientLiquidity reports a purchase past the curve allocation.
	ErrInsufficientLiquidity = errors.New("persona engine: insufficient curve liquidity")
	// ErrInsufficientBalance reports a buyer without funds for the purchase.
	ErrInsufficientBalance = errors.New("persona engine: insufficient balance")

	// ErrNothingToWithdraw reports a withdrawal with no releasable locks.
	ErrNothingToWithdraw = errors.New("persona engine: nothing to withdraw")
	// ErrStillLocked reports locks that exist but have not matured.
	ErrStillLocked = errors.New("persona engine: purchase still locked")
	// ErrLockNotFound reports a lock index outside the buyer's history.
	ErrLockNotFound = errors.New("persona engine: lock not found")
)
