// Package errors maps issuance pipeline errors to HTTP status codes and
// API error codes.
package errors

import (
	"errors"
	"net/http"

	"github.com/opencorebank/pki-console/internal/api/dto"
	"github.com/opencorebank/pki-console/internal/caclient"
	"github.com/opencorebank/pki-console/internal/issuance"
	"github.com/opencorebank/pki-console/internal/keys"
)

// Error codes returned in API responses.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeEmptySelection   = "EMPTY_SELECTION"
	CodeIssuanceRejected = "ISSUANCE_REJECTED"
	CodeCAUnreachable    = "CA_UNREACHABLE"
	CodeInternal         = "INTERNAL_ERROR"
)

// MapError converts a pipeline error into an HTTP status and API error.
func MapError(err error) (int, *dto.APIError) {
	switch {
	case errors.Is(err, issuance.ErrEmptySelection):
		return http.StatusBadRequest, &dto.APIError{
			Code:    CodeEmptySelection,
			Message: "at least one recipient must be selected",
		}
	case errors.Is(err, caclient.ErrIssuanceRejected):
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodeIssuanceRejected,
			Message: err.Error(),
		}
	case errors.Is(err, caclient.ErrIssuanceUnreachable):
		return http.StatusBadGateway, &dto.APIError{
			Code:    CodeCAUnreachable,
			Message: err.Error(),
		}
	case errors.Is(err, keys.ErrCryptoUnavailable),
		errors.Is(err, keys.ErrEntropyUnavailable):
		return http.StatusInternalServerError, &dto.APIError{
			Code:    CodeInternal,
			Message: "secure random generation unavailable",
		}
	default:
		return http.StatusInternalServerError, &dto.APIError{
			Code:    CodeInternal,
			Message: err.Error(),
		}
	}
}
