package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/7rockstarmade/LogicModule/internal/app/service"
	"github.com/7rockstarmade/LogicModule/internal/common"
)

type AttemptHandler struct {
	attemptService *service.AttemptService
	answerService  *service.AnswerService
}

func NewAttemptHandler(as *service.AttemptService, ans *service.AnswerService) *AttemptHandler {
	return &AttemptHandler{attemptService: as, answerService: ans}
}

func (h *AttemptHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tests/{testID}", h.createAttempt)     // POST /api/v1/attempts/tests/{testID}
	r.Get("/{attemptID}", h.getAttempt)            // GET /api/v1/attempts/{id}
	r.Post("/{attemptID}/finish", h.finishAttempt) // POST /api/v1/attempts/{id}/finish
	r.Get("/{attemptID}/answers", h.listAnswers)   // GET /api/v1/attempts/{id}/answers
}

func (h *AttemptHandler) createAttempt(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	attempt, err := h.attemptService.Create(r.Context(), user, chi.URLParam(r, "testID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, attempt)
}

func (h *AttemptHandler) getAttempt(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	attempt, err := h.attemptService.Get(r.Context(), user, chi.URLParam(r, "attemptID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, attempt)
}

func (h *AttemptHandler) finishAttempt(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	attempt, err := h.attemptService.Finish(r.Context(), user, chi.URLParam(r, "attemptID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, attempt)
}

func (h *AttemptHandler) listAnswers(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	answers, err := h.answerService.ListForAttempt(r.Context(), user, chi.URLParam(r, "attemptID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, answers)
}
