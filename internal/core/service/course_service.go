package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/cache"
	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
	"github.com/madeeasy/coursehub/internal/resilience"
)

const (
	coursesAllKey    = "courses:all"
	coursesIDKeyPf   = "courses:id:"
	coursesCodeKeyPf = "courses:code:"
)

// CourseService owns course records. Deleting a course cascades to its
// instances in the instance service: dependent cleanup runs first, and the
// local row is removed only once cleanup succeeded or the remote reported it
// had nothing to delete. The aggregate root is never gone while dependents
// remain.
type CourseService struct {
	courses ports.CourseRepository
	cleanup ports.InstanceCleanupClient
	remote  *resilience.Caller[struct{}]
	kv      cache.KeyValue
	log     zerolog.Logger
}

func NewCourseService(
	courses ports.CourseRepository,
	cleanup ports.InstanceCleanupClient,
	remote *resilience.Caller[struct{}],
	kv cache.KeyValue,
	log zerolog.Logger,
) *CourseService {
	return &CourseService{courses: courses, cleanup: cleanup, remote: remote, kv: kv, log: log}
}

func (s *CourseService) Create(ctx context.Context, in ports.CourseInput) (*domain.Course, error) {
	course := &domain.Course{
		ID:          uuid.NewString(),
		Title:       in.Title,
		CourseCode:  in.CourseCode,
		Description: in.Description,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	evict(ctx, s.kv, s.log, coursesAllKey)
	return course, nil
}

func (s *CourseService) GetAll(ctx context.Context) ([]*domain.Course, error) {
	return cached(ctx, s.kv, coursesAllKey, s.log, s.courses.FindAll)
}

func (s *CourseService) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	return cached(ctx, s.kv, coursesIDKeyPf+id, s.log, func(ctx context.Context) (*domain.Course, error) {
		return s.courses.FindByID(ctx, id)
	})
}

func (s *CourseService) GetByCode(ctx context.Context, courseCode string) (*domain.Course, error) {
	return cached(ctx, s.kv, coursesCodeKeyPf+courseCode, s.log, func(ctx context.Context) (*domain.Course, error) {
		return s.courses.FindByCode(ctx, courseCode)
	})
}

// Delete runs the cascade. The cleanup call is idempotent, so it retries
// with backoff inside the breaker; a remote 404 means the instances are
// already gone and counts as success.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	sg := newSaga("course-delete", s.log)

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return sg.abort(err)
	}

	sg.to(sagaRemotePending)
	_, err = s.remote.DoRetry(ctx, func(ctx context.Context) (struct{}, error) {
		err := s.cleanup.DeleteByCourse(ctx, course.ID)
		if err != nil && domain.IsKind(err, domain.KindNotFound) {
			// Already consistent: nothing left to clean up.
			return struct{}{}, nil
		}
		return struct{}{}, err
	}, resilience.Unavailable[struct{}]("course deletion failed as course instance service is unavailable, please try again later"))
	if err != nil {
		return sg.abort(err)
	}

	sg.to(sagaLocalCommitted)
	if err := s.courses.DeleteByID(ctx, course.ID); err != nil {
		return err
	}
	evict(ctx, s.kv, s.log, coursesAllKey, coursesIDKeyPf+course.ID, coursesCodeKeyPf+course.CourseCode)

	s.log.Info().Str("course_id", course.ID).Msg("course and dependent instances deleted")
	return nil
}
