package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/cache"
	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
	"github.com/madeeasy/coursehub/internal/resilience"
)

const instancesAllKey = "instances:all"

func instancesTermKey(year, semester int) string {
	return fmt.Sprintf("instances:%d-%d", year, semester)
}

// InstanceService owns course-instance records. Creation verifies the
// referenced course exists in the course service first; the lookup is
// read-only and therefore safely retryable.
type InstanceService struct {
	instances ports.InstanceRepository
	courses   ports.CourseLookupClient
	remote    *resilience.Caller[*domain.Course]
	kv        cache.KeyValue
	log       zerolog.Logger
}

func NewInstanceService(
	instances ports.InstanceRepository,
	courses ports.CourseLookupClient,
	remote *resilience.Caller[*domain.Course],
	kv cache.KeyValue,
	log zerolog.Logger,
) *InstanceService {
	return &InstanceService{instances: instances, courses: courses, remote: remote, kv: kv, log: log}
}

func (s *InstanceService) Create(ctx context.Context, in ports.InstanceInput) (*domain.CourseInstance, error) {
	_, err := s.remote.DoRetry(ctx, func(ctx context.Context) (*domain.Course, error) {
		return s.courses.GetCourse(ctx, in.CourseID)
	}, resilience.Unavailable[*domain.Course]("instance creation failed as course service is unavailable, please try again later"))
	if err != nil {
		return nil, err
	}

	instance := &domain.CourseInstance{
		ID:       uuid.NewString(),
		Year:     in.Year,
		Semester: in.Semester,
		CourseID: in.CourseID,
	}
	if err := s.instances.Create(ctx, instance); err != nil {
		return nil, err
	}

	evict(ctx, s.kv, s.log, instancesAllKey, instancesTermKey(in.Year, in.Semester))
	return instance, nil
}

func (s *InstanceService) GetAll(ctx context.Context) ([]*domain.CourseInstance, error) {
	return cached(ctx, s.kv, instancesAllKey, s.log, s.instances.FindAll)
}

func (s *InstanceService) GetByYearSemester(ctx context.Context, year, semester int) ([]*domain.CourseInstance, error) {
	return cached(ctx, s.kv, instancesTermKey(year, semester), s.log, func(ctx context.Context) ([]*domain.CourseInstance, error) {
		return s.instances.FindByYearSemester(ctx, year, semester)
	})
}

func (s *InstanceService) GetByID(ctx context.Context, year, semester int, id string) (*domain.CourseInstance, error) {
	return s.instances.FindByID(ctx, year, semester, id)
}

// DeleteByCourse is the cascade target the course service calls. Zero
// matching rows is NotFound so the caller can distinguish "already clean"
// from an actual sweep.
func (s *InstanceService) DeleteByCourse(ctx context.Context, courseID string) (int64, error) {
	deleted, err := s.instances.DeleteByCourseID(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, domain.E(domain.KindNotFound, "no course instances found for courseId %s", courseID)
	}

	// Term keys are unknown here; the bulk delete invalidates the full list
	// and lets the term entries age out on TTL.
	evict(ctx, s.kv, s.log, instancesAllKey)
	s.log.Info().Str("course_id", courseID).Int64("deleted", deleted).Msg("deleted course instances for course")
	return deleted, nil
}
