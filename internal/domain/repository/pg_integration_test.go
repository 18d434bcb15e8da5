package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/platform/database"
)

// pgStore connects to LOGIC_INTEGRATION_DSN and applies the schema. Every
// test uses fresh uuids, so the database does not need to be empty.
func pgStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LOGIC_INTEGRATION_DSN")
	if dsn == "" {
		t.Skip("LOGIC_INTEGRATION_DSN not set")
	}
	db, err := database.Open(dsn, 5)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return NewPgStore(db)
}

func TestPgUsersAndEnrollment(t *testing.T) {
	store := pgStore(t)
	ctx := context.Background()

	u := &model.User{ID: uuid.NewString(), Username: "u-" + uuid.NewString(), FullName: "Pg User", Roles: []string{"student"}}
	require.NoError(t, store.Users.Create(ctx, nil, u))
	err := store.Users.Create(ctx, nil, u)
	assert.ErrorIs(t, err, common.ErrConflict)

	require.NoError(t, store.Users.SetRoles(ctx, nil, u.ID, []string{"teacher", "admin"}))
	got, err := store.Users.FindByID(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"teacher", "admin"}, got.Roles)

	course := &model.Course{ID: uuid.NewString(), Title: "Pg", Slug: "pg", TeacherID: "someone"}
	require.NoError(t, store.Courses.Create(ctx, nil, course))

	_, created, err := store.Enrollments.Enroll(ctx, nil, course.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = store.Enrollments.Enroll(ctx, nil, course.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, created)

	n, err := store.Users.CountCourses(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err := store.Enrollments.Unenroll(ctx, nil, course.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = store.Enrollments.Unenroll(ctx, nil, course.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPgTestCompositionAndAttempts(t *testing.T) {
	store := pgStore(t)
	ctx := context.Background()

	course := &model.Course{ID: uuid.NewString(), Title: "Pg", Slug: "pg", TeacherID: "teacher"}
	require.NoError(t, store.Courses.Create(ctx, nil, course))
	test := &model.Test{ID: uuid.NewString(), CourseID: course.ID, Title: "T", IsActive: true}
	require.NoError(t, store.Tests.Create(ctx, nil, test))

	var questionIDs []string
	versions := map[string]*model.QuestionVersion{}
	for i := 0; i < 3; i++ {
		q := &model.Question{ID: uuid.NewString(), AuthorID: "teacher"}
		require.NoError(t, store.Questions.Create(ctx, nil, q))
		v := &model.QuestionVersion{ID: uuid.NewString(), QuestionID: q.ID, Version: 1, Title: "Q", Text: "?", Options: []string{"a", "b"}, CorrectIndex: 1}
		require.NoError(t, store.Questions.CreateVersion(ctx, nil, v))
		require.NoError(t, store.Tests.AddQuestion(ctx, nil, &model.TestQuestion{TestID: test.ID, QuestionID: q.ID, Position: i}))
		questionIDs = append(questionIDs, q.ID)
		versions[q.ID] = v
	}

	reordered := []string{questionIDs[2], questionIDs[0], questionIDs[1]}
	require.NoError(t, store.Tests.SetPositions(ctx, nil, test.ID, reordered))
	links, err := store.Tests.ListQuestions(ctx, nil, test.ID)
	require.NoError(t, err)
	require.Len(t, links, 3)
	for i, l := range links {
		assert.Equal(t, reordered[i], l.QuestionID)
		assert.Equal(t, i, l.Position)
	}

	latest, err := store.Questions.LatestVersion(ctx, nil, questionIDs[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, latest.Options)

	attempt := &model.Attempt{ID: uuid.NewString(), UserID: "student", TestID: test.ID, Status: model.AttemptInProgress}
	err = store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := store.Attempts.Create(ctx, tx, attempt); err != nil {
			return err
		}
		var frozen []model.AttemptQuestion
		var answers []model.Answer
		for i, qid := range reordered {
			frozen = append(frozen, model.AttemptQuestion{AttemptID: attempt.ID, QuestionID: qid, QuestionVersionID: versions[qid].ID, Position: i})
			answers = append(answers, model.Answer{ID: uuid.NewString(), AttemptID: attempt.ID, QuestionID: qid, QuestionVersionID: versions[qid].ID, Value: model.AnswerUnanswered})
		}
		if err := store.Attempts.AddQuestions(ctx, tx, frozen); err != nil {
			return err
		}
		return store.Answers.CreateBatch(ctx, tx, answers)
	})
	require.NoError(t, err)

	dup := &model.Attempt{ID: uuid.NewString(), UserID: "student", TestID: test.ID, Status: model.AttemptInProgress}
	assert.ErrorIs(t, store.Attempts.Create(ctx, nil, dup), common.ErrConflict)

	locked, err := store.Attempts.HasAttempts(ctx, nil, test.ID)
	require.NoError(t, err)
	assert.True(t, locked)

	answers, err := store.Answers.ListByAttempt(ctx, nil, attempt.ID)
	require.NoError(t, err)
	require.Len(t, answers, 3)
	assert.Equal(t, reordered[0], answers[0].QuestionID)
	require.NoError(t, store.Answers.UpdateValue(ctx, nil, answers[0].ID, 1))

	score := decimal.RequireFromString("33.3333")
	require.NoError(t, store.Attempts.Finish(ctx, nil, attempt.ID, score, time.Now().UTC()))
	err = store.Attempts.Finish(ctx, nil, attempt.ID, score, time.Now().UTC())
	assert.True(t, errors.Is(err, common.ErrConflict))

	err = store.Answers.UpdateValue(ctx, nil, answers[1].ID, 1)
	assert.ErrorIs(t, err, common.ErrValidation)

	finished, err := store.Attempts.ListFinishedByTest(ctx, nil, test.ID, "student")
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.True(t, finished[0].Score.Decimal.Equal(score))
}

// seedTest creates a live course and an active test with no questions.
func seedTest(t *testing.T, store *Store) string {
	t.Helper()
	ctx := context.Background()
	course := &model.Course{ID: uuid.NewString(), Title: "Pg", Slug: "pg", TeacherID: "teacher"}
	require.NoError(t, store.Courses.Create(ctx, nil, course))
	test := &model.Test{ID: uuid.NewString(), CourseID: course.ID, Title: "T", IsActive: true}
	require.NoError(t, store.Tests.Create(ctx, nil, test))
	return test.ID
}

func TestPgConcurrentAttemptCreate(t *testing.T) {
	store := pgStore(t)
	ctx := context.Background()
	testID := seedTest(t, store)

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
				return store.Attempts.Create(ctx, tx, &model.Attempt{
					ID: uuid.NewString(), UserID: "racer", TestID: testID, Status: model.AttemptInProgress,
				})
			})
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, common.ErrConflict)
	}
	assert.Equal(t, 1, created)
}

func TestPgInProgressListLocksAttempts(t *testing.T) {
	store := pgStore(t)
	ctx := context.Background()
	testID := seedTest(t, store)

	attempt := &model.Attempt{ID: uuid.NewString(), UserID: "student", TestID: testID, Status: model.AttemptInProgress}
	require.NoError(t, store.Attempts.Create(ctx, nil, attempt))

	listed := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
			running, err := store.Attempts.ListInProgressByTest(ctx, tx, testID)
			if err != nil {
				return err
			}
			if len(running) != 1 {
				return errors.New("expected one running attempt")
			}
			close(listed)
			time.Sleep(200 * time.Millisecond)
			return store.Attempts.Finish(ctx, tx, attempt.ID, decimal.Zero, time.Now().UTC())
		})
	}()
	select {
	case <-listed:
	case err := <-done:
		t.Fatalf("finishing transaction ended before listing: %v", err)
	}

	// Blocks on the row lock until the finishing transaction commits, so
	// the owner never sees the attempt as still running.
	var status model.AttemptStatus
	err := store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		a, err := store.Attempts.FindByIDForUpdate(ctx, tx, attempt.ID)
		if err != nil {
			return err
		}
		status = a.Status
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, model.AttemptFinished, status)
}
