package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"nutvest/gateway/middleware"
	"nutvest/native/access"
	"nutvest/native/airdrop"
	"nutvest/native/merkle"
	"nutvest/native/schedule"
	"nutvest/native/token"
	"nutvest/native/vesting"
	"nutvest/storage/proofs"
)

type errorKind struct {
	err    error
	status int
	code   string
}

// errorKinds maps engine sentinels onto HTTP responses. Order matters only
// for errors wrapping more than one sentinel.
var errorKinds = []errorKind{
	{airdrop.ErrAlreadyClaimed, http.StatusConflict, "already_claimed"},
	{airdrop.ErrInvalidProof, http.StatusBadRequest, "invalid_proof"},
	{airdrop.ErrUnknownDistribution, http.StatusNotFound, "unknown_distribution"},
	{airdrop.ErrDistributionExists, http.StatusConflict, "distribution_exists"},
	{airdrop.ErrInvalidDistributionID, http.StatusBadRequest, "invalid_distribution_id"},
	{airdrop.ErrInvalidRoot, http.StatusBadRequest, "invalid_root"},
	{airdrop.ErrInvalidAccount, http.StatusBadRequest, "invalid_account"},
	{proofs.ErrNotFound, http.StatusNotFound, "proof_not_found"},

	{schedule.ErrScheduleEmpty, http.StatusBadRequest, "schedule_empty"},
	{schedule.ErrScheduleUnordered, http.StatusBadRequest, "schedule_unordered"},
	{schedule.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{schedule.ErrZeroAddress, http.StatusBadRequest, "zero_address"},
	{schedule.ErrLockNotSet, http.StatusConflict, "lock_not_set"},
	{schedule.ErrLockExpired, http.StatusConflict, "lock_expired"},
	{schedule.ErrLockMismatch, http.StatusConflict, "lock_mismatch"},
	{schedule.ErrInsufficientCustodyFunds, http.StatusConflict, "insufficient_custody_funds"},
	{schedule.ErrNoSuchSchedule, http.StatusNotFound, "no_such_schedule"},

	{vesting.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{vesting.ErrZeroAddress, http.StatusBadRequest, "zero_address"},
	{vesting.ErrTimestampNotFuture, http.StatusBadRequest, "timestamp_not_future"},
	{vesting.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
	{vesting.ErrInsufficientLockedAmount, http.StatusConflict, "insufficient_locked_amount"},
	{vesting.ErrVestingComplete, http.StatusConflict, "vesting_complete"},
	{vesting.ErrNoActiveVesting, http.StatusConflict, "no_active_vesting"},
	{vesting.ErrLockIneligible, http.StatusConflict, "lock_ineligible"},
	{vesting.ErrFeeCollectorUnset, http.StatusConflict, "fee_collector_unset"},
	{vesting.ErrCannotRescueCustody, http.StatusBadRequest, "cannot_rescue_custody"},

	{token.ErrUnknownToken, http.StatusBadRequest, "unknown_token"},
	{token.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{token.ErrZeroAddress, http.StatusBadRequest, "zero_address"},
	{token.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
	{token.ErrPaused, http.StatusConflict, "paused"},
	{token.ErrCapExceeded, http.StatusConflict, "cap_exceeded"},
	{token.ErrTransferLocked, http.StatusConflict, "transfer_locked"},

	{access.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{access.ErrZeroPrincipal, http.StatusBadRequest, "zero_address"},
	{merkle.ErrInvalidHash, http.StatusBadRequest, "invalid_proof"},
	{errBadRequest, http.StatusBadRequest, "bad_request"},
}

func classify(err error) (int, string) {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.err) {
			return kind.status, kind.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed",
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		message = http.StatusText(status)
	}
	middleware.WriteError(w, status, code, message)
}
