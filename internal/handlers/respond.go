package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/logging"
	"github.com/AnshRaj112/fitcoach-backend/internal/middleware"
)

const maxBodyBytes = 1 << 20

// envelope is the success response shape: {"success": true, ...}.
type envelope map[string]any

func ok(key string, value any) envelope {
	return envelope{"success": true, key: value}
}

func message(msg string) envelope {
	return envelope{"success": true, "message": msg}
}

func (e envelope) with(key string, value any) envelope {
	e[key] = value
	return e
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx, zerolog.Nop()).Error().Err(err).Int("status", status).Msg("encode response body")
	}
}

// respondError renders err through the error envelope. 5xx causes are logged,
// never sent to the client.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := apperror.Classify(err)
	logger := logging.FromContext(ctx, zerolog.Nop())
	switch {
	case appErr.Status >= http.StatusInternalServerError:
		logger.Error().Err(err).Int("status", appErr.Status).Msg("request failed")
	case appErr.Status >= http.StatusBadRequest:
		logger.Debug().Err(err).Int("status", appErr.Status).Msg("request returned client error")
	}
	respondJSON(ctx, w, appErr.Status, appErr)
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.BadRequest("request body too large")
		case errors.Is(err, io.EOF):
			return apperror.BadRequest("request body is empty")
		default:
			return apperror.BadRequest("invalid request body").Wrap(err)
		}
	}
	if dec.More() {
		return apperror.BadRequest("request body must hold a single JSON object")
	}
	return nil
}

// currentUser returns the caller id set by the auth middleware.
func currentUser(r *http.Request) (string, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthorized("authentication required")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Invalid(name, "Must be an integer")
	}
	return v, nil
}

// expectedVersion reads the optional optimistic-lock version, from the body
// field when given and otherwise from the If-Match header.
func expectedVersion(r *http.Request, body *int64) (*int64, error) {
	if body != nil {
		return body, nil
	}
	raw := strings.Trim(strings.TrimSpace(r.Header.Get("If-Match")), `"`)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperror.Invalid("If-Match", "Must be a version number")
	}
	return &v, nil
}

func deviceID(r *http.Request, body string) string {
	if body = strings.TrimSpace(body); body != "" {
		return body
	}
	return strings.TrimSpace(r.Header.Get("X-Device-ID"))
}
