package ports

import (
	"context"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// CourseRepository persists courses for the course service.
type CourseRepository interface {
	Create(ctx context.Context, course *domain.Course) error
	FindAll(ctx context.Context) ([]*domain.Course, error)
	FindByID(ctx context.Context, id string) (*domain.Course, error)
	FindByCode(ctx context.Context, courseCode string) (*domain.Course, error)
	DeleteByID(ctx context.Context, id string) error
}

// InstanceRepository persists course instances for the instance service.
type InstanceRepository interface {
	Create(ctx context.Context, instance *domain.CourseInstance) error
	FindAll(ctx context.Context) ([]*domain.CourseInstance, error)
	FindByYearSemester(ctx context.Context, year, semester int) ([]*domain.CourseInstance, error)
	FindByID(ctx context.Context, year, semester int, id string) (*domain.CourseInstance, error)
	DeleteByCourseID(ctx context.Context, courseID string) (int64, error)
}
