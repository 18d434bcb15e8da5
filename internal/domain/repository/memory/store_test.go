package memory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		require.NoError(t, store.Users.Create(ctx, tx, &model.User{ID: "u1", Username: "one"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Users.FindByID(ctx, nil, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return store.Users.Create(ctx, tx, &model.User{ID: "u1", Username: "one"})
	})
	require.NoError(t, err)
	_, err = store.Users.FindByID(ctx, nil, "u1")
	assert.NoError(t, err)
}

func TestReadsOutsideTxWaitForOpenTx(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	inside := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
			if err := store.Users.Create(ctx, tx, &model.User{ID: "u1", Username: "one"}); err != nil {
				return err
			}
			close(inside)
			<-release
			return errors.New("rolled back")
		})
	}()
	<-inside

	seen := make(chan error, 1)
	go func() {
		_, err := store.Users.FindByID(ctx, nil, "u1")
		seen <- err
	}()
	select {
	case err := <-seen:
		t.Fatalf("read returned while a transaction was open: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.Error(t, <-done)
	assert.ErrorIs(t, <-seen, common.ErrNotFound)
}

func TestNestedWithinTxJoinsOuter(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
			return store.Users.Create(ctx, tx, &model.User{ID: "u1", Username: "one"})
		})
	})
	require.NoError(t, err)
	_, err = store.Users.FindByID(ctx, nil, "u1")
	assert.NoError(t, err)
}

func TestSingleInProgressAttempt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Attempts.Create(ctx, nil, &model.Attempt{ID: "a1", UserID: "u", TestID: "t", Status: model.AttemptInProgress}))
	err := store.Attempts.Create(ctx, nil, &model.Attempt{ID: "a2", UserID: "u", TestID: "t", Status: model.AttemptInProgress})
	assert.ErrorIs(t, err, common.ErrConflict)

	require.NoError(t, store.Attempts.Create(ctx, nil, &model.Attempt{ID: "a3", UserID: "other", TestID: "t", Status: model.AttemptInProgress}))
}

func TestSetPositionsRequiresFullPermutation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Courses.Create(ctx, nil, &model.Course{ID: "c"}))
	require.NoError(t, store.Tests.Create(ctx, nil, &model.Test{ID: "t", CourseID: "c"}))
	for i, id := range []string{"q1", "q2", "q3"} {
		require.NoError(t, store.Questions.Create(ctx, nil, &model.Question{ID: id}))
		require.NoError(t, store.Tests.AddQuestion(ctx, nil, &model.TestQuestion{TestID: "t", QuestionID: id, Position: i}))
	}

	err := store.Tests.AddQuestion(ctx, nil, &model.TestQuestion{TestID: "t", QuestionID: "q1", Position: 3})
	assert.ErrorIs(t, err, common.ErrConflict)

	require.NoError(t, store.Tests.SetPositions(ctx, nil, "t", []string{"q3", "q1", "q2"}))
	links, err := store.Tests.ListQuestions(ctx, nil, "t")
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "q3", links[0].QuestionID)
	assert.Equal(t, "q2", links[2].QuestionID)

	assert.Error(t, store.Tests.SetPositions(ctx, nil, "t", []string{"q1", "q2"}))
}

func TestCourseSoftDeleteHidesTests(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Courses.Create(ctx, nil, &model.Course{ID: "c"}))
	require.NoError(t, store.Tests.Create(ctx, nil, &model.Test{ID: "t", CourseID: "c"}))
	require.NoError(t, store.Courses.SoftDelete(ctx, nil, "c"))

	_, err := store.Courses.FindByID(ctx, nil, "c")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = store.Tests.FindByID(ctx, nil, "t")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
