package memory

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
)

type requestRepo struct{ s *Store }

func (r *requestRepo) Create(ctx context.Context, req *model.TutoringRequest) error {
	return r.s.write(func(v *view) error { return v.Requests().Create(ctx, req) })
}

func (r *requestRepo) GetByID(ctx context.Context, id int64) (out *model.TutoringRequest, err error) {
	r.s.read(func(v *view) { out, err = v.Requests().GetByID(ctx, id) })
	return
}

func (r *requestRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.TutoringRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *requestRepo) List(ctx context.Context, filter model.RequestFilter) (out []*model.TutoringRequest, err error) {
	r.s.read(func(v *view) { out, err = v.Requests().List(ctx, filter) })
	return
}

func (r *requestRepo) Update(ctx context.Context, req *model.TutoringRequest) error {
	return r.s.write(func(v *view) error { return v.Requests().Update(ctx, req) })
}

func (r *requestRepo) Delete(ctx context.Context, id int64) error {
	return r.s.write(func(v *view) error { return v.Requests().Delete(ctx, id) })
}

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(ctx context.Context, session *model.TutoringSession) error {
	return r.s.write(func(v *view) error { return v.Sessions().Create(ctx, session) })
}

func (r *sessionRepo) GetByID(ctx context.Context, id int64) (out *model.TutoringSession, err error) {
	r.s.read(func(v *view) { out, err = v.Sessions().GetByID(ctx, id) })
	return
}

func (r *sessionRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.TutoringSession, error) {
	return r.GetByID(ctx, id)
}

func (r *sessionRepo) List(ctx context.Context, filter model.SessionFilter) (out []*model.TutoringSession, err error) {
	r.s.read(func(v *view) { out, err = v.Sessions().List(ctx, filter) })
	return
}

func (r *sessionRepo) ListByTutorBetween(ctx context.Context, tutorID int64, from, to time.Time) (out []*model.TutoringSession, err error) {
	r.s.read(func(v *view) { out, err = v.Sessions().ListByTutorBetween(ctx, tutorID, from, to) })
	return
}

func (r *sessionRepo) CountByRequest(ctx context.Context, requestID int64) (n int, err error) {
	r.s.read(func(v *view) { n, err = v.Sessions().CountByRequest(ctx, requestID) })
	return
}

func (r *sessionRepo) Update(ctx context.Context, session *model.TutoringSession) error {
	return r.s.write(func(v *view) error { return v.Sessions().Update(ctx, session) })
}

type tutorRepo struct{ s *Store }

func (r *tutorRepo) GetByID(ctx context.Context, userID int64) (out *model.Tutor, err error) {
	r.s.read(func(v *view) { out, err = v.Tutors().GetByID(ctx, userID) })
	return
}

func (r *tutorRepo) GetByIDForUpdate(ctx context.Context, userID int64) (*model.Tutor, error) {
	return r.GetByID(ctx, userID)
}

func (r *tutorRepo) ListActive(ctx context.Context) (out []*model.Tutor, err error) {
	r.s.read(func(v *view) { out, err = v.Tutors().ListActive(ctx) })
	return
}

type courseRepo struct{ s *Store }

func (r *courseRepo) GetByID(ctx context.Context, id int64) (out *model.Course, err error) {
	r.s.read(func(v *view) { out, err = v.Courses().GetByID(ctx, id) })
	return
}

func (r *courseRepo) List(ctx context.Context) (out []*model.Course, err error) {
	r.s.read(func(v *view) { out, err = v.Courses().List(ctx) })
	return
}

type userRepo struct{ s *Store }

func (r *userRepo) GetByID(ctx context.Context, id int64) (out *model.User, err error) {
	r.s.read(func(v *view) { out, err = v.Users().GetByID(ctx, id) })
	return
}

func (r *userRepo) GetByTelegramID(ctx context.Context, telegramID int64) (out *model.User, err error) {
	r.s.read(func(v *view) { out, err = v.Users().GetByTelegramID(ctx, telegramID) })
	return
}
