package handler

import (
	"net/http"

	"github.com/7rockstarmade/LogicModule/internal/api/middleware"
	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

// currentUser writes a 401 and returns false when the request carries no
// authenticated caller.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.CurrentUser, bool) {
	user, ok := middleware.CurrentUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
	}
	return user, ok
}
