package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestAssetErrorMapperAssignsStableTextCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category goerrors.Category
		textCode string
		httpCode int
	}{
		{
			name:     "balance underflow",
			err:      &BalanceUnderflowError{Account: "alice.test", Balance: Q64(1), Amount: Q64(2)},
			category: goerrors.CategoryConflict,
			textCode: AssetErrorBalanceUnderflow,
			httpCode: http.StatusConflict,
		},
		{
			name:     "token not found",
			err:      &TokenNotFoundError{TokenID: "token-1"},
			category: goerrors.CategoryNotFound,
			textCode: AssetErrorTokenNotFound,
			httpCode: http.StatusNotFound,
		},
		{
			name:     "sender not owner",
			err:      &SenderIsNotOwnerError{TokenID: "token-1", Owner: "bob.test", Sender: "mallory.test"},
			category: goerrors.CategoryAuthz,
			textCode: AssetErrorSenderNotOwner,
			httpCode: http.StatusForbidden,
		},
		{
			name:     "insufficient budget",
			err:      &InsufficientBudgetError{Available: 1, Required: 2},
			category: goerrors.CategoryOperation,
			textCode: AssetErrorInsufficientBudget,
			httpCode: http.StatusInternalServerError,
		},
		{
			name:     "already settled",
			err:      &TransferAlreadySettledError{SettlementID: "s-1"},
			category: goerrors.CategoryConflict,
			textCode: AssetErrorAlreadySettled,
			httpCode: http.StatusConflict,
		},
		{
			name:     "invalid transfer",
			err:      fmt.Errorf("%w: receiver is required", ErrInvalidTransfer),
			category: goerrors.CategoryBadInput,
			textCode: AssetErrorBadInput,
			httpCode: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := assetErrorMapper(tc.err)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.Category != tc.category {
				t.Fatalf("expected category %s, got %s", tc.category, mapped.Category)
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %s, got %s", tc.textCode, mapped.TextCode)
			}
			if mapped.Code != tc.httpCode {
				t.Fatalf("expected http code %d, got %d", tc.httpCode, mapped.Code)
			}
		})
	}
}

func TestAssetErrorMapperWrapsUnknownErrors(t *testing.T) {
	mapped := assetErrorMapper(errors.New("disk died"))
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.TextCode == "" {
		t.Fatalf("expected a default text code")
	}
	if mapped.Code == 0 {
		t.Fatalf("expected an http status to be assigned")
	}
}

func TestAssetErrorMapperKeepsExistingEnvelopes(t *testing.T) {
	rich := goerrors.New("already mapped", goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(AssetErrorTokenNotFound)

	mapped := assetErrorMapper(rich)
	if mapped != rich {
		t.Fatalf("expected existing envelope to pass through")
	}
}

func TestHookVetoErrorUnwraps(t *testing.T) {
	cause := errors.New("transfers paused")
	veto := &HookVetoError{Hook: "before_transfer", Err: cause}
	if !errors.Is(veto, cause) {
		t.Fatalf("expected veto to unwrap to its cause")
	}
}
