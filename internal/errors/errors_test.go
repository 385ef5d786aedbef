package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeInsufficientFunds, "insufficient funds")
	err := WithMetadata(CodeInsufficientFunds, "insufficient funds", map[string]string{"Balance": "10"})
	if !stderrors.Is(err, sentinel) {
		t.Fatal("expected errors with the same code to match")
	}
	other := New(CodeSelfTransfer, "self transfer")
	if stderrors.Is(err, other) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeStoreUnavailable, "persist account", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if GetCode(err) != CodeStoreUnavailable {
		t.Fatalf("GetCode = %v, want %v", GetCode(err), CodeStoreUnavailable)
	}
}

func TestLocalize(t *testing.T) {
	err := WithMetadata(CodeInsufficientFunds, "insufficient funds", map[string]string{
		"Required": "550",
		"Balance":  "200",
	})
	code, status, msg := Localize(err, "en-US")
	if code != CodeInsufficientFunds {
		t.Fatalf("code = %v, want %v", code, CodeInsufficientFunds)
	}
	if status != http.StatusConflict {
		t.Fatalf("status = %d, want %d", status, http.StatusConflict)
	}
	if msg != "Insufficient funds: need 550, have 200" {
		t.Fatalf("msg = %q", msg)
	}
}

func TestLocalizeUnknownError(t *testing.T) {
	code, status, msg := Localize(fmt.Errorf("boom"), "")
	if code != CodeUnknown {
		t.Fatalf("code = %v, want %v", code, CodeUnknown)
	}
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", status, http.StatusInternalServerError)
	}
	if msg != "An unexpected error occurred" {
		t.Fatalf("msg = %q", msg)
	}
}

func TestHTTPStatusByCode(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeAmountNotPositive, http.StatusBadRequest},
		{CodeBalanceExceedsCap, http.StatusConflict},
		{CodeLoanNotFound, http.StatusNotFound},
		{CodeStoreUnavailable, http.StatusServiceUnavailable},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.code, got, tc.want)
		}
	}
}
