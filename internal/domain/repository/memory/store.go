// Package memory is an in-process implementation of the repository
// interfaces. Transactions are serialized; a failed transaction restores the
// state it started from. Calls outside a transaction wait for the open one,
// so they only ever see committed state.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
)

type enrollKey struct{ courseID, userID string }

type state struct {
	seq int64
	// order records creation order of every row id.
	order map[string]int64

	users            map[string]model.User
	courses          map[string]model.Course
	enrollments      map[enrollKey]model.CourseUser
	tests            map[string]model.Test
	testQuestions    map[string][]model.TestQuestion
	questions        map[string]model.Question
	versions         map[string]model.QuestionVersion
	attempts         map[string]model.Attempt
	attemptQuestions map[string][]model.AttemptQuestion
	answers          map[string]model.Answer
	notifications    map[string]model.Notification
}

func newState() *state {
	return &state{
		order:            map[string]int64{},
		users:            map[string]model.User{},
		courses:          map[string]model.Course{},
		enrollments:      map[enrollKey]model.CourseUser{},
		tests:            map[string]model.Test{},
		testQuestions:    map[string][]model.TestQuestion{},
		questions:        map[string]model.Question{},
		versions:         map[string]model.QuestionVersion{},
		attempts:         map[string]model.Attempt{},
		attemptQuestions: map[string][]model.AttemptQuestion{},
		answers:          map[string]model.Answer{},
		notifications:    map[string]model.Notification{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copySliceMap[K comparable, V any](m map[K][]V) map[K][]V {
	out := make(map[K][]V, len(m))
	for k, v := range m {
		out[k] = append([]V(nil), v...)
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		seq:              s.seq,
		order:            copyMap(s.order),
		users:            copyMap(s.users),
		courses:          copyMap(s.courses),
		enrollments:      copyMap(s.enrollments),
		tests:            copyMap(s.tests),
		testQuestions:    copySliceMap(s.testQuestions),
		questions:        copyMap(s.questions),
		versions:         copyMap(s.versions),
		attempts:         copyMap(s.attempts),
		attemptQuestions: copySliceMap(s.attemptQuestions),
		answers:          copyMap(s.answers),
		notifications:    copyMap(s.notifications),
	}
}

func (s *state) track(id string) {
	s.seq++
	s.order[id] = s.seq
}

// db holds the shared state. mu guards single operations, txMu is held for
// the whole of a transaction. Calls made outside a transaction take txMu as
// well, so they never observe writes of a transaction that may roll back.
type db struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state
	now  func() time.Time
}

type txKey struct{}

func (d *db) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*db)
	return owner == d
}

func (d *db) read(ctx context.Context, fn func(st *state)) {
	if !d.inTx(ctx) {
		d.txMu.Lock()
		defer d.txMu.Unlock()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.st)
}

func (d *db) write(ctx context.Context, fn func(st *state) error) error {
	if !d.inTx(ctx) {
		d.txMu.Lock()
		defer d.txMu.Unlock()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.st)
}

func (d *db) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if d.inTx(ctx) {
		return fn(ctx, (*sql.Tx)(nil))
	}
	d.txMu.Lock()
	defer d.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	snapshot := d.st.clone()
	d.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, d), (*sql.Tx)(nil)); err != nil {
		d.mu.Lock()
		d.st = snapshot
		d.mu.Unlock()
		return err
	}
	return nil
}

// NewStore returns an empty in-memory store.
func NewStore() *repository.Store {
	d := &db{st: newState(), now: func() time.Time { return time.Now().UTC() }}
	return &repository.Store{
		Tx:            d,
		Users:         &userRepo{d},
		Courses:       &courseRepo{d},
		Enrollments:   &enrollmentRepo{d},
		Tests:         &testRepo{d},
		Questions:     &questionRepo{d},
		Attempts:      &attemptRepo{d},
		Answers:       &answerRepo{d},
		Notifications: &notificationRepo{d},
	}
}
