package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"

	"github.com/7rockstarmade/LogicModule/internal/api/handler"
	"github.com/7rockstarmade/LogicModule/internal/api/middleware"
	"github.com/7rockstarmade/LogicModule/internal/app/service"
	"github.com/7rockstarmade/LogicModule/internal/common/security"
	"github.com/7rockstarmade/LogicModule/internal/platform/config"
)

// Services groups everything the HTTP surface calls into.
type Services struct {
	Users         *service.UserService
	Courses       *service.CourseService
	Tests         *service.TestService
	Questions     *service.QuestionService
	Attempts      *service.AttemptService
	Answers       *service.AnswerService
	Results       *service.ResultService
	Notifications *service.NotificationService
}

func NewRouter(s Services) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	if config.AppConfig.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(config.AppConfig.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AppConfig.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Looks for "Authorization: Bearer T" and leaves the verified token in
	// the context for middleware.Authenticator.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		// Course reads are public; the handler authenticates everything else.
		v1.Route("/courses", handler.NewCourseHandler(s.Courses, s.Tests).RegisterRoutes)

		v1.Group(func(authed chi.Router) {
			authed.Use(middleware.Authenticator)

			authed.Route("/users", handler.NewUserHandler(s.Users).RegisterRoutes)
			authed.Route("/tests", handler.NewTestHandler(s.Tests, s.Results).RegisterRoutes)
			authed.Route("/questions", handler.NewQuestionHandler(s.Questions).RegisterRoutes)
			authed.Route("/attempts", handler.NewAttemptHandler(s.Attempts, s.Answers).RegisterRoutes)
			authed.Route("/answers", handler.NewAnswerHandler(s.Answers).RegisterRoutes)
			authed.Route("/notifications", handler.NewNotificationHandler(s.Notifications).RegisterRoutes)
		})
	})

	return r
}
