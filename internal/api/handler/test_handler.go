package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/7rockstarmade/LogicModule/internal/app/service"
	"github.com/7rockstarmade/LogicModule/internal/common"
)

type TestHandler struct {
	testService   *service.TestService
	resultService *service.ResultService
}

func NewTestHandler(ts *service.TestService, rs *service.ResultService) *TestHandler {
	return &TestHandler{testService: ts, resultService: rs}
}

func (h *TestHandler) RegisterRoutes(r chi.Router) {
	r.Route("/{testID}", func(r chi.Router) {
		r.Get("/questions", h.listQuestions)                  // GET /api/v1/tests/{id}/questions
		r.Post("/questions", h.addQuestion)                   // POST /api/v1/tests/{id}/questions
		r.Put("/questions/order", h.reorderQuestions)         // PUT /api/v1/tests/{id}/questions/order
		r.Delete("/questions/{questionID}", h.removeQuestion) // DELETE /api/v1/tests/{id}/questions/{qid}

		r.Get("/results/users", h.resultUsers)
		r.Get("/results/grades", h.resultGrades)
		r.Get("/results/answers", h.resultAnswers)
	})
}

func (h *TestHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	links, err := h.testService.ListTestQuestions(r.Context(), user, chi.URLParam(r, "testID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, links)
}

func (h *TestHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.AddQuestionRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	link, err := h.testService.AddQuestion(r.Context(), user, chi.URLParam(r, "testID"), req.QuestionID)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, link)
}

func (h *TestHandler) reorderQuestions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.ReorderRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	links, err := h.testService.ReorderQuestions(r.Context(), user, chi.URLParam(r, "testID"), req.QuestionIDs)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, links)
}

func (h *TestHandler) removeQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	err := h.testService.RemoveQuestion(r.Context(), user, chi.URLParam(r, "testID"), chi.URLParam(r, "questionID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondNoContent(w)
}

// Result endpoints take an optional ?user_id= filter.

func (h *TestHandler) resultUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	users, err := h.resultService.Users(r.Context(), user, chi.URLParam(r, "testID"), r.URL.Query().Get("user_id"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *TestHandler) resultGrades(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	grades, err := h.resultService.Grades(r.Context(), user, chi.URLParam(r, "testID"), r.URL.Query().Get("user_id"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, grades)
}

func (h *TestHandler) resultAnswers(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	answers, err := h.resultService.Answers(r.Context(), user, chi.URLParam(r, "testID"), r.URL.Query().Get("user_id"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, answers)
}
