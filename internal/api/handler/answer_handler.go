package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/7rockstarmade/LogicModule/internal/app/service"
	"github.com/7rockstarmade/LogicModule/internal/common"
)

type AnswerHandler struct {
	answerService *service.AnswerService
}

func NewAnswerHandler(as *service.AnswerService) *AnswerHandler {
	return &AnswerHandler{answerService: as}
}

func (h *AnswerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{answerID}", h.getAnswer)
	r.Patch("/{answerID}", h.updateAnswer)
	r.Delete("/{answerID}", h.resetAnswer)
}

func (h *AnswerHandler) getAnswer(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	answer, err := h.answerService.Get(r.Context(), user, chi.URLParam(r, "answerID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, answer)
}

func (h *AnswerHandler) updateAnswer(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.UpdateAnswerRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	answer, err := h.answerService.Update(r.Context(), user, chi.URLParam(r, "answerID"), *req.Value)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, answer)
}

// resetAnswer clears the chosen option; the answer slot itself stays.
func (h *AnswerHandler) resetAnswer(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	answer, err := h.answerService.Reset(r.Context(), user, chi.URLParam(r, "answerID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, answer)
}
