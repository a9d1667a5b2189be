package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/auth"
	"github.com/AnshRaj112/fitcoach-backend/internal/logging"
)

type ctxKey string

const userIDKey ctxKey = "userID"

var internalError = apperror.Internal("internal server error")

// AccessTokenParser validates access tokens.
type AccessTokenParser interface {
	ParseAccessToken(token string) (*auth.Claims, error)
}

// WithUserID stores the authenticated user's id on the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the id put there by Authenticate.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// BearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter that browser websocket clients have to use.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// Authenticate rejects requests without a valid access token.
func Authenticate(tokens AccessTokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeError(w, apperror.Unauthorized("missing access token"))
				return
			}
			claims, err := tokens.ParseAccessToken(token)
			if err != nil {
				writeError(w, apperror.Classify(err))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			log := logging.FromContext(ctx, zerolog.Nop()).With().Str("user_id", claims.UserID).Logger()
			ctx = logging.WithLogger(ctx, log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, appErr *apperror.Error) {
	body, err := json.Marshal(appErr)
	if err != nil {
		body = []byte(`{"success":false,"code":"internal_error","message":"internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_, _ = w.Write(body)
}
