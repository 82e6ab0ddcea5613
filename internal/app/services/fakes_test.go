package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/app/repositories"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/helpers"
)

var nopLogger = zerolog.Nop()

// inlineTx runs fn directly and counts calls.
type inlineTx struct{ calls int }

func (t *inlineTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type fakeStudentRepo struct {
	create  func(ctx context.Context, s *models.Student) error
	getByID func(ctx context.Context, id int64) (*models.Student, error)
	list    func(ctx context.Context, f repositories.StudentFilter, p helpers.PageRequest) ([]*models.Student, int64, error)
	findAll func(ctx context.Context) ([]*models.Student, error)
	update  func(ctx context.Context, s *models.Student) error
	delete  func(ctx context.Context, id int64) error
}

func (f *fakeStudentRepo) Create(ctx context.Context, s *models.Student) error {
	return f.create(ctx, s)
}

func (f *fakeStudentRepo) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	return f.getByID(ctx, id)
}

func (f *fakeStudentRepo) List(ctx context.Context, filter repositories.StudentFilter, page helpers.PageRequest) ([]*models.Student, int64, error) {
	return f.list(ctx, filter, page)
}

func (f *fakeStudentRepo) FindAll(ctx context.Context) ([]*models.Student, error) {
	return f.findAll(ctx)
}

func (f *fakeStudentRepo) Update(ctx context.Context, s *models.Student) error {
	return f.update(ctx, s)
}

func (f *fakeStudentRepo) Delete(ctx context.Context, id int64) error {
	return f.delete(ctx, id)
}

// fakeCourseRepo hands out ids per exact name.
type fakeCourseRepo struct {
	byName map[string]*models.Course
}

func (f *fakeCourseRepo) GetOrCreate(_ context.Context, name string) (*models.Course, error) {
	if f.byName == nil {
		f.byName = map[string]*models.Course{}
	}
	if c, ok := f.byName[name]; ok {
		return c, nil
	}
	c := &models.Course{ID: int64(len(f.byName) + 1), Name: name}
	f.byName[name] = c
	return c, nil
}

type recordedEvent struct {
	Action, Details string
}

type fakeAudit struct {
	events []recordedEvent
	err    error
}

func (f *fakeAudit) LogEvent(_ context.Context, action, details string) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, recordedEvent{action, details})
	return nil
}

func (f *fakeAudit) GetAllLogs(context.Context) ([]*models.AuditLog, error) {
	return nil, nil
}

// fakeUserRepo is an in-memory user table.
type fakeUserRepo struct {
	users  map[string]*models.User
	nextID int64
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		r.nextID++
		if u.ID == 0 {
			u.ID = r.nextID
		}
		r.users[u.Username] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	if _, ok := r.users[u.Username]; ok {
		return apperrors.ErrUsernameAlreadyTaken
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.Username] = u
	return nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := r.users[username]
	return ok, nil
}

func (r *fakeUserRepo) List(context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

type onlineSet map[string]bool

func (o onlineSet) IsOnline(username string) bool { return o[username] }
