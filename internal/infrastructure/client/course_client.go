package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// CourseClient calls the course service. The instance service uses it to
// verify a course exists before creating an instance.
type CourseClient struct {
	rest *REST
}

func NewCourseClient(baseURL string, timeout time.Duration, log zerolog.Logger) *CourseClient {
	return &CourseClient{rest: NewREST(baseURL, timeout, log)}
}

func (c *CourseClient) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	var course domain.Course
	if err := c.rest.do(ctx, http.MethodGet, "/api/courses/"+url.PathEscape(id), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// InstanceClient calls the instance service. The course service uses it for
// the dependent-cleanup leg of the deletion cascade.
type InstanceClient struct {
	rest *REST
}

func NewInstanceClient(baseURL string, timeout time.Duration, log zerolog.Logger) *InstanceClient {
	return &InstanceClient{rest: NewREST(baseURL, timeout, log)}
}

func (c *InstanceClient) DeleteByCourse(ctx context.Context, courseID string) error {
	return c.rest.do(ctx, http.MethodDelete, "/api/instances/courseId/"+url.PathEscape(courseID), nil, nil)
}
