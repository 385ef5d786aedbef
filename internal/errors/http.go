package errors

import (
	"errors"

	"github.com/tavernworks/treasury/internal/errors/i18n"
)

// DefaultLocale is the default locale for error messages.
const DefaultLocale = "en-US"

// Localize resolves the user-facing payload for an error: the machine code,
// the HTTP status it maps to, and the message translated for the given
// locale. Unknown errors collapse to CodeUnknown with a generic message so
// internal details never leak to clients.
func Localize(err error, locale string) (Code, int, string) {
	if locale == "" {
		locale = DefaultLocale
	}
	catalog := i18n.GetCatalog(locale)

	var appErr *Error
	if errors.As(err, &appErr) {
		userMsg := catalog.Format(string(appErr.Code), appErr.Metadata)
		return appErr.Code, appErr.Code.HTTPStatus(), userMsg
	}

	return CodeUnknown, CodeUnknown.HTTPStatus(), catalog.Format(string(CodeUnknown), nil)
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetMetadata extracts metadata from an error if present.
// Returns nil if the error is not a domain error or has no metadata.
func GetMetadata(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}
