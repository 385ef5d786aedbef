package i18n

// Error codes must match the codes defined in internal/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown              = "UNKNOWN"
	CodeBadRequest           = "BAD_REQUEST"
	CodeActorIDEmpty         = "ACTOR_ID_EMPTY"
	CodeAmountNotPositive    = "AMOUNT_NOT_POSITIVE"
	CodeBalanceOutOfRange    = "BALANCE_OUT_OF_RANGE"
	CodeBalanceExceedsCap    = "BALANCE_EXCEEDS_CAP"
	CodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	CodeSelfTransfer         = "SELF_TRANSFER"
	CodeAccountNotCached     = "ACCOUNT_NOT_CACHED"
	CodeLoanOutstanding      = "LOAN_OUTSTANDING"
	CodeLoanAlreadyPaid      = "LOAN_ALREADY_PAID"
	CodeLoanNotFound         = "LOAN_NOT_FOUND"
	CodeLoanTooLarge         = "LOAN_TOO_LARGE"
	CodeLoanDurationInvalid  = "LOAN_DURATION_INVALID"
	CodeItemNameEmpty        = "ITEM_NAME_EMPTY"
	CodeItemPriceNotPositive = "ITEM_PRICE_NOT_POSITIVE"
	CodeItemNotFound         = "ITEM_NOT_FOUND"
	CodeQuantityNotPositive  = "QUANTITY_NOT_POSITIVE"
	CodeRateOutOfRange       = "RATE_OUT_OF_RANGE"
	CodeSettingsInvalid      = "SETTINGS_INVALID"
	CodeNotFound             = "NOT_FOUND"
	CodeStoreUnavailable     = "STORE_UNAVAILABLE"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		CodeUnknown:    "An unexpected error occurred",
		CodeBadRequest: "Request body could not be parsed",

		// Account errors
		CodeActorIDEmpty:      "Actor ID cannot be empty",
		CodeAmountNotPositive: "Amount must be greater than zero",
		CodeBalanceOutOfRange: "Balance must be between 0 and {{.Max}}",
		CodeBalanceExceedsCap: "Balance would exceed the maximum of {{.Max}}",
		CodeInsufficientFunds: "Insufficient funds: need {{.Required}}, have {{.Balance}}",
		CodeSelfTransfer:      "Source and destination actors must differ",
		CodeAccountNotCached:  "Account {{.ActorID}} is not loaded",

		// Loan errors
		CodeLoanOutstanding:     "An active loan already exists for this actor",
		CodeLoanAlreadyPaid:     "Loan has already been paid off",
		CodeLoanNotFound:        "No active loan found for this actor",
		CodeLoanTooLarge:        "Loan principal cannot exceed {{.Max}}",
		CodeLoanDurationInvalid: "Loan duration must be between 1 and 365 days",

		// Shop errors
		CodeItemNameEmpty:        "Item name cannot be empty",
		CodeItemPriceNotPositive: "Item price must be greater than zero",
		CodeItemNotFound:         "Item {{.Name}} was not found",
		CodeQuantityNotPositive:  "Quantity must be at least 1",

		// Settings errors
		CodeRateOutOfRange:  "Rate {{.Rate}} is outside the allowed range",
		CodeSettingsInvalid: "Economy settings are invalid: {{.Reason}}",

		// Storage errors
		CodeNotFound:         "The requested resource was not found",
		CodeStoreUnavailable: "The ledger store is temporarily unavailable",
	},
}
