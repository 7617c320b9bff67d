package dto

import "net/http"

// Standardized error codes exposed by the API
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeNotFound   = "ERR_NOT_FOUND"
	ErrCodeConflict   = "ERR_CONFLICT"
	ErrCodeValidation = "ERR_VALIDATION"

	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodePublicationActive   = "ERR_PUBLICATION_ACTIVE"
	ErrCodeBusinessRule        = "ERR_BUSINESS_RULE"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,
	ErrCodeConflict:   http.StatusConflict,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodePublicationActive:   http.StatusConflict,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
}

// domainErrorCodeMapping maps domain error codes to API error codes.
// Codes without an entry fall through as business rule violations.
var domainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"PUBLICATION_ACTIVE":   ErrCodePublicationActive,
	"UNKNOWN_PLATFORM":     ErrCodeInvalidInput,
}

// NormalizeErrorCode maps a domain error code to the API error code
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainErrorCodeMapping[code]; ok {
		return mapped
	}
	return ErrCodeBusinessRule
}

// GetHTTPStatus returns the HTTP status code for an API error code,
// defaulting to 500 for unknown codes
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
