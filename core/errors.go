package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	AssetErrorBadInput           = "ASSETS_BAD_INPUT"
	AssetErrorBalanceOverflow    = "ASSETS_BALANCE_OVERFLOW"
	AssetErrorBalanceUnderflow   = "ASSETS_BALANCE_UNDERFLOW"
	AssetErrorSupplyOverflow     = "ASSETS_SUPPLY_OVERFLOW"
	AssetErrorSupplyUnderflow    = "ASSETS_SUPPLY_UNDERFLOW"
	AssetErrorTokenNotFound      = "ASSETS_TOKEN_NOT_FOUND"
	AssetErrorTokenExists        = "ASSETS_TOKEN_EXISTS"
	AssetErrorSenderNotOwner     = "ASSETS_SENDER_NOT_OWNER"
	AssetErrorInsufficientBudget = "ASSETS_INSUFFICIENT_BUDGET"
	AssetErrorAlreadySettled     = "ASSETS_ALREADY_SETTLED"
	AssetErrorHookVeto           = "ASSETS_HOOK_VETO"
	AssetErrorInternal           = "ASSETS_INTERNAL_ERROR"
)

// BalanceOverflowError reports a deposit that would push an account
// balance past the maximum representable quantity.
type BalanceOverflowError struct {
	Account string
	Balance Quantity
	Amount  Quantity
}

func (e *BalanceOverflowError) Error() string {
	return fmt.Sprintf(
		"core: balance overflow for account %q: balance %s + amount %s exceeds maximum",
		e.Account, e.Balance, e.Amount,
	)
}

// BalanceUnderflowError reports a withdrawal larger than the account
// balance.
type BalanceUnderflowError struct {
	Account string
	Balance Quantity
	Amount  Quantity
}

func (e *BalanceUnderflowError) Error() string {
	return fmt.Sprintf(
		"core: balance underflow for account %q: amount %s exceeds balance %s",
		e.Account, e.Amount, e.Balance,
	)
}

type TotalSupplyOverflowError struct {
	TotalSupply Quantity
	Amount      Quantity
}

func (e *TotalSupplyOverflowError) Error() string {
	return fmt.Sprintf(
		"core: total supply overflow: supply %s + amount %s exceeds maximum",
		e.TotalSupply, e.Amount,
	)
}

type TotalSupplyUnderflowError struct {
	TotalSupply Quantity
	Amount      Quantity
}

func (e *TotalSupplyUnderflowError) Error() string {
	return fmt.Sprintf(
		"core: total supply underflow: amount %s exceeds supply %s",
		e.Amount, e.TotalSupply,
	)
}

type TokenNotFoundError struct {
	TokenID string
}

func (e *TokenNotFoundError) Error() string {
	return fmt.Sprintf("core: token %q does not exist", e.TokenID)
}

type TokenAlreadyExistsError struct {
	TokenID string
	Owner   string
}

func (e *TokenAlreadyExistsError) Error() string {
	return fmt.Sprintf("core: token %q already exists, owned by %q", e.TokenID, e.Owner)
}

type SenderIsNotOwnerError struct {
	TokenID string
	Owner   string
	Sender  string
}

func (e *SenderIsNotOwnerError) Error() string {
	return fmt.Sprintf(
		"core: token %q is owned by %q, not by sender %q",
		e.TokenID, e.Owner, e.Sender,
	)
}

// InsufficientBudgetError is reported before any asynchronous step
// begins when the execution budget cannot cover the receiver call plus
// the resolver reservation.
type InsufficientBudgetError struct {
	Available uint64
	Required  uint64
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf(
		"core: insufficient execution budget: %d available, %d required",
		e.Available, e.Required,
	)
}

// TransferAlreadySettledError reports a resolution attempt against a
// settlement that has already been finalized or reversed.
type TransferAlreadySettledError struct {
	SettlementID string
}

func (e *TransferAlreadySettledError) Error() string {
	return fmt.Sprintf("core: transfer %q is already settled", e.SettlementID)
}

// HookVetoError wraps a before-hook failure that aborted an operation
// before any ledger mutation.
type HookVetoError struct {
	Hook string
	Err  error
}

func (e *HookVetoError) Error() string {
	return fmt.Sprintf("core: hook %q vetoed operation: %v", e.Hook, e.Err)
}

func (e *HookVetoError) Unwrap() error {
	return e.Err
}

// assetErrorMapper normalizes domain errors into go-errors envelopes
// with stable text codes.
func assetErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureAssetErrorEnvelope(richErr)
	}

	switch {
	case matches[*BalanceOverflowError](err):
		return newAssetError(err, goerrors.CategoryConflict, AssetErrorBalanceOverflow)
	case matches[*BalanceUnderflowError](err):
		return newAssetError(err, goerrors.CategoryConflict, AssetErrorBalanceUnderflow)
	case matches[*TotalSupplyOverflowError](err):
		return newAssetError(err, goerrors.CategoryConflict, AssetErrorSupplyOverflow)
	case matches[*TotalSupplyUnderflowError](err):
		return newAssetError(err, goerrors.CategoryConflict, AssetErrorSupplyUnderflow)
	case matches[*TokenNotFoundError](err):
		return newAssetError(err, goerrors.CategoryNotFound, AssetErrorTokenNotFound)
	case matches[*TokenAlreadyExistsError](err):
		return newAssetError(err, goerrors.CategoryConflict, AssetErrorTokenExists)
	case matches[*SenderIsNotOwnerError](err):
		return newAssetError(err, goerrors.CategoryAuthz, AssetErrorSenderNotOwner)
	case matches[*InsufficientBudgetError](err):
		return newAssetError(err, goerrors.CategoryOperation, AssetErrorInsufficientBudget)
	case matches[*TransferAlreadySettledError](err):
		return newAssetError(err, goerrors.CategoryConflict, AssetErrorAlreadySettled)
	case matches[*HookVetoError](err):
		return newAssetError(err, goerrors.CategoryOperation, AssetErrorHookVeto)
	case errors.Is(err, ErrInvalidTransfer):
		return newAssetError(err, goerrors.CategoryBadInput, AssetErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureAssetErrorEnvelope(mapped)
}

func matches[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func newAssetError(err error, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAssetErrorEnvelope(
		goerrors.New(err.Error(), category).
			WithTextCode(textCode),
	)
}

func ensureAssetErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = assetHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAssetTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultAssetTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return AssetErrorBadInput
	case goerrors.CategoryNotFound:
		return AssetErrorTokenNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return AssetErrorSenderNotOwner
	case goerrors.CategoryConflict:
		return AssetErrorAlreadySettled
	case goerrors.CategoryOperation:
		return AssetErrorHookVeto
	default:
		return AssetErrorInternal
	}
}

func assetHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
