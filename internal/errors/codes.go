// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeBadRequest represents a request the gateway could not parse.
	CodeBadRequest Code = "BAD_REQUEST"

	// Account errors
	CodeActorIDEmpty      Code = "ACTOR_ID_EMPTY"
	CodeAmountNotPositive Code = "AMOUNT_NOT_POSITIVE"
	CodeBalanceOutOfRange Code = "BALANCE_OUT_OF_RANGE"
	CodeBalanceExceedsCap Code = "BALANCE_EXCEEDS_CAP"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeSelfTransfer      Code = "SELF_TRANSFER"
	CodeAccountNotCached  Code = "ACCOUNT_NOT_CACHED"

	// Loan errors
	CodeLoanOutstanding     Code = "LOAN_OUTSTANDING"
	CodeLoanAlreadyPaid     Code = "LOAN_ALREADY_PAID"
	CodeLoanNotFound        Code = "LOAN_NOT_FOUND"
	CodeLoanTooLarge        Code = "LOAN_TOO_LARGE"
	CodeLoanDurationInvalid Code = "LOAN_DURATION_INVALID"

	// Shop errors
	CodeItemNameEmpty        Code = "ITEM_NAME_EMPTY"
	CodeItemPriceNotPositive Code = "ITEM_PRICE_NOT_POSITIVE"
	CodeItemNotFound         Code = "ITEM_NOT_FOUND"
	CodeQuantityNotPositive  Code = "QUANTITY_NOT_POSITIVE"

	// Settings errors
	CodeRateOutOfRange  Code = "RATE_OUT_OF_RANGE"
	CodeSettingsInvalid Code = "SETTINGS_INVALID"

	// Storage errors
	CodeNotFound         Code = "NOT_FOUND"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// BadRequest - validation failures, bad input
	case CodeBadRequest,
		CodeActorIDEmpty,
		CodeAmountNotPositive,
		CodeBalanceOutOfRange,
		CodeSelfTransfer,
		CodeLoanTooLarge,
		CodeLoanDurationInvalid,
		CodeItemNameEmpty,
		CodeItemPriceNotPositive,
		CodeQuantityNotPositive,
		CodeRateOutOfRange,
		CodeSettingsInvalid:
		return http.StatusBadRequest

	// Conflict - state doesn't allow operation
	case CodeInsufficientFunds,
		CodeBalanceExceedsCap,
		CodeAccountNotCached,
		CodeLoanOutstanding,
		CodeLoanAlreadyPaid:
		return http.StatusConflict

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeLoanNotFound,
		CodeItemNotFound:
		return http.StatusNotFound

	// ServiceUnavailable - durable store failures
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
