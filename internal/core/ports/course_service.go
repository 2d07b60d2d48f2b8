package ports

import (
	"context"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// CourseInput carries the fields of a course creation request.
type CourseInput struct {
	Title       string
	CourseCode  string
	Description string
}

// CourseService owns course records and coordinates the deletion cascade
// with the instance service.
type CourseService interface {
	Create(ctx context.Context, in CourseInput) (*domain.Course, error)
	GetAll(ctx context.Context) ([]*domain.Course, error)
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	GetByCode(ctx context.Context, courseCode string) (*domain.Course, error)
	Delete(ctx context.Context, id string) error
}

// InstanceInput carries the fields of an instance creation request.
type InstanceInput struct {
	Year     int
	Semester int
	CourseID string
}

// InstanceService owns course-instance records.
type InstanceService interface {
	Create(ctx context.Context, in InstanceInput) (*domain.CourseInstance, error)
	GetAll(ctx context.Context) ([]*domain.CourseInstance, error)
	GetByYearSemester(ctx context.Context, year, semester int) ([]*domain.CourseInstance, error)
	GetByID(ctx context.Context, year, semester int, id string) (*domain.CourseInstance, error)
	DeleteByCourse(ctx context.Context, courseID string) (int64, error)
}
