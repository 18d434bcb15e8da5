package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/common/security"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

type contextKey string

const CurrentUserCtxKey contextKey = "currentUser"

// Authenticator turns the token verified by jwtauth.Verifier into a
// model.CurrentUser stored in the request context.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			if errors.Is(err, jwtauth.ErrNoTokenFound) {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}
		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := security.CurrentUserFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCurrentUser(r.Context(), user)))
	})
}

func WithCurrentUser(ctx context.Context, user *model.CurrentUser) context.Context {
	return context.WithValue(ctx, CurrentUserCtxKey, user)
}

// CurrentUserFromContext returns the caller set by Authenticator.
func CurrentUserFromContext(ctx context.Context) (*model.CurrentUser, bool) {
	user, ok := ctx.Value(CurrentUserCtxKey).(*model.CurrentUser)
	return user, ok && user != nil
}
