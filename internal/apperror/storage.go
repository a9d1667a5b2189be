package apperror

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// documentValidationFailure is the server code for a $jsonSchema rejection.
const documentValidationFailure = 121

var dupKeyPattern = regexp.MustCompile(`dup key: \{ ?([^:}]+)`)

// CastError is returned by repositories when a caller supplied value cannot be
// converted to its storage type (an id that is not a valid ObjectID hex).
type CastError struct {
	Field string
	Value string
}

func (e *CastError) Error() string {
	return "cannot cast " + e.Field + " value " + strings.TrimSpace(e.Value)
}

// FromStorage translates a storage driver error. It returns nil for nil.
func FromStorage(err error) *Error {
	if err == nil {
		return nil
	}
	if appErr, ok := fromStorage(err); ok {
		return appErr
	}
	return newError(http.StatusInternalServerError, "unknown_database_error", "unknown database error").Wrap(err)
}

func fromStorage(err error) (*Error, bool) {
	var castErr *CastError
	switch {
	case errors.As(err, &castErr):
		return newError(http.StatusBadRequest, "cast_error", "invalid value for "+castErr.Field).
			WithDetails(CastDetails{Field: castErr.Field, Value: castErr.Value}).Wrap(err), true
	case errors.Is(err, primitive.ErrInvalidHex):
		return newError(http.StatusBadRequest, "cast_error", "invalid identifier").
			WithDetails(CastDetails{Field: "id"}).Wrap(err), true
	case errors.Is(err, mongo.ErrNoDocuments):
		return newError(http.StatusNotFound, "not_found", "document not found").Wrap(err), true
	case mongo.IsDuplicateKeyError(err):
		return newError(http.StatusConflict, "duplicate_key", "resource already exists").
			WithDetails(DuplicateKeyDetails{Key: duplicateKey(err)}).Wrap(err), true
	case hasServerCode(err, documentValidationFailure):
		return newError(http.StatusBadRequest, "validation_failed", "document failed validation").
			WithDetails(FieldErrors{Fields: validationFields(err)}).Wrap(err), true
	case errors.Is(err, mongo.ErrClientDisconnected), mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return serviceUnavailable(err), true
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serviceUnavailable(err), true
	}
	return nil, false
}

func serviceUnavailable(err error) *Error {
	return newError(http.StatusServiceUnavailable, "service_unavailable", "service unavailable").Wrap(err)
}

func hasServerCode(err error, code int) bool {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorCode(code)
	}
	return false
}

// duplicateKey extracts the first key name from a E11000 message.
func duplicateKey(err error) string {
	m := dupKeyPattern.FindStringSubmatch(err.Error())
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func validationFields(err error) []FieldError {
	var we mongo.WriteException
	if !errors.As(err, &we) {
		return []FieldError{{Field: "document", Message: err.Error()}}
	}
	fields := make([]FieldError, 0, len(we.WriteErrors))
	for _, e := range we.WriteErrors {
		if e.Code != documentValidationFailure {
			continue
		}
		fields = append(fields, FieldError{Field: "document", Message: e.Message})
	}
	return fields
}
