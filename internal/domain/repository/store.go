package repository

import "database/sql"

// Store bundles the repositories of one backend with its TxManager.
type Store struct {
	Tx            TxManager
	Users         UserRepository
	Courses       CourseRepository
	Enrollments   EnrollmentRepository
	Tests         TestRepository
	Questions     QuestionRepository
	Attempts      AttemptRepository
	Answers       AnswerRepository
	Notifications NotificationRepository
}

func NewPgStore(db *sql.DB) *Store {
	return &Store{
		Tx:            NewPgTxManager(db),
		Users:         NewPgUserRepository(db),
		Courses:       NewPgCourseRepository(db),
		Enrollments:   NewPgEnrollmentRepository(db),
		Tests:         NewPgTestRepository(db),
		Questions:     NewPgQuestionRepository(db),
		Attempts:      NewPgAttemptRepository(db),
		Answers:       NewPgAnswerRepository(db),
		Notifications: NewPgNotificationRepository(db),
	}
}
