package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/7rockstarmade/LogicModule/internal/app/service"
	"github.com/7rockstarmade/LogicModule/internal/common"
)

type QuestionHandler struct {
	questionService *service.QuestionService
}

func NewQuestionHandler(qs *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: qs}
}

func (h *QuestionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listQuestions)   // GET /api/v1/questions
	r.Post("/", h.createQuestion) // POST /api/v1/questions
	r.Route("/{questionID}", func(r chi.Router) {
		r.Get("/", h.getLatest)
		r.Delete("/", h.deleteQuestion)
		r.Post("/versions", h.createVersion)
		r.Get("/versions/{version}", h.getVersion)
	})
}

func (h *QuestionHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	questions, err := h.questionService.ListQuestions(r.Context(), user)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, questions)
}

func (h *QuestionHandler) createQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateQuestionRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	question, err := h.questionService.CreateQuestion(r.Context(), user, req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) getLatest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	question, err := h.questionService.GetLatest(r.Context(), user, chi.URLParam(r, "questionID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.questionService.DeleteQuestion(r.Context(), user, chi.URLParam(r, "questionID")); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondNoContent(w)
}

func (h *QuestionHandler) createVersion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.QuestionContent
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	version, err := h.questionService.CreateVersion(r.Context(), user, chi.URLParam(r, "questionID"), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, version)
}

func (h *QuestionHandler) getVersion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || n < 1 {
		common.RespondWithAppError(w, fmt.Errorf("version must be a positive integer: %w", common.ErrBadRequest))
		return
	}
	version, err := h.questionService.GetVersion(r.Context(), user, chi.URLParam(r, "questionID"), n)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, version)
}
