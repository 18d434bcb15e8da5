package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/7rockstarmade/LogicModule/internal/api/middleware"
	"github.com/7rockstarmade/LogicModule/internal/app/service"
	"github.com/7rockstarmade/LogicModule/internal/common"
)

type CourseHandler struct {
	courseService *service.CourseService
	testService   *service.TestService
}

func NewCourseHandler(cs *service.CourseService, ts *service.TestService) *CourseHandler {
	return &CourseHandler{courseService: cs, testService: ts}
}

func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listCourses)         // GET /api/v1/courses
	r.Get("/{courseID}", h.getCourse) // GET /api/v1/courses/{id}

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Post("/", h.createCourse)
		authed.Patch("/{courseID}", h.updateCourse)
		authed.Delete("/{courseID}", h.deleteCourse)

		authed.Get("/{courseID}/students", h.listStudents)
		authed.Post("/{courseID}/students", h.enroll)
		authed.Delete("/{courseID}/students/{userID}", h.unenroll)

		authed.Get("/{courseID}/tests", h.listTests)
		authed.Post("/{courseID}/tests", h.createTest)
		authed.Delete("/{courseID}/tests/{testID}", h.deleteTest)
		authed.Get("/{courseID}/tests/{testID}/active", h.getActive)
		authed.Patch("/{courseID}/tests/{testID}/active", h.setActive)
	})
}

func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListCourses(r.Context())
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseService.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateCourseRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	course, err := h.courseService.CreateCourse(r.Context(), user, req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.UpdateCourseRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	course, err := h.courseService.UpdateCourse(r.Context(), user, chi.URLParam(r, "courseID"), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.courseService.DeleteCourse(r.Context(), user, chi.URLParam(r, "courseID")); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondNoContent(w)
}

func (h *CourseHandler) listStudents(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	students, err := h.courseService.ListCourseStudents(r.Context(), user, chi.URLParam(r, "courseID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, students)
}

// enroll accepts an empty body, which enrolls the caller.
func (h *CourseHandler) enroll(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.EnrollRequest
	if r.ContentLength > 0 {
		if err := common.DecodeAndValidate(r, &req); err != nil {
			common.RespondWithAppError(w, err)
			return
		}
	}
	link, err := h.courseService.Enroll(r.Context(), user, chi.URLParam(r, "courseID"), req.UserID)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, link)
}

func (h *CourseHandler) unenroll(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	err := h.courseService.Unenroll(r.Context(), user, chi.URLParam(r, "courseID"), chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondNoContent(w)
}

func (h *CourseHandler) listTests(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tests, err := h.courseService.ListCourseTests(r.Context(), user, chi.URLParam(r, "courseID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tests)
}

func (h *CourseHandler) createTest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateTestRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	test, err := h.testService.CreateTest(r.Context(), user, chi.URLParam(r, "courseID"), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, test)
}

func (h *CourseHandler) deleteTest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	err := h.testService.DeleteTest(r.Context(), user, chi.URLParam(r, "courseID"), chi.URLParam(r, "testID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondNoContent(w)
}

type activeResponse struct {
	TestID   string `json:"test_id"`
	IsActive bool   `json:"is_active"`
}

func (h *CourseHandler) getActive(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	testID := chi.URLParam(r, "testID")
	active, err := h.testService.GetActive(r.Context(), user, chi.URLParam(r, "courseID"), testID)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, activeResponse{TestID: testID, IsActive: active})
}

func (h *CourseHandler) setActive(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.SetActiveRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	test, err := h.testService.SetActive(r.Context(), user, chi.URLParam(r, "courseID"), chi.URLParam(r, "testID"), *req.IsActive)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, activeResponse{TestID: test.ID, IsActive: test.IsActive})
}
