package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
)

type stubInstanceRepo struct {
	mu        sync.Mutex
	instances []*domain.CourseInstance
}

func (r *stubInstanceRepo) Create(_ context.Context, in *domain.CourseInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *in
	r.instances = append(r.instances, &clone)
	return nil
}

func (r *stubInstanceRepo) FindAll(_ context.Context) ([]*domain.CourseInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.CourseInstance, len(r.instances))
	for i, in := range r.instances {
		clone := *in
		out[i] = &clone
	}
	return out, nil
}

func (r *stubInstanceRepo) FindByYearSemester(_ context.Context, year, semester int) ([]*domain.CourseInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CourseInstance
	for _, in := range r.instances {
		if in.Year == year && in.Semester == semester {
			clone := *in
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubInstanceRepo) FindByID(_ context.Context, year, semester int, id string) (*domain.CourseInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.instances {
		if in.Year == year && in.Semester == semester && in.ID == id {
			clone := *in
			return &clone, nil
		}
	}
	return nil, domain.E(domain.KindNotFound, "course instance with id %s not found", id)
}

func (r *stubInstanceRepo) DeleteByCourseID(_ context.Context, courseID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*domain.CourseInstance
	var deleted int64
	for _, in := range r.instances {
		if in.CourseID == courseID {
			deleted++
			continue
		}
		kept = append(kept, in)
	}
	r.instances = kept
	return deleted, nil
}

type stubCourseLookup struct {
	courses map[string]*domain.Course
	err     error
}

func (c *stubCourseLookup) GetCourse(_ context.Context, id string) (*domain.Course, error) {
	if c.err != nil {
		return nil, c.err
	}
	if course, ok := c.courses[id]; ok {
		return course, nil
	}
	return nil, domain.E(domain.KindNotFound, "course with id %s not found", id)
}

type instanceFixture struct {
	svc       *InstanceService
	instances *stubInstanceRepo
	lookup    *stubCourseLookup
}

func newInstanceFixture() *instanceFixture {
	instances := &stubInstanceRepo{}
	lookup := &stubCourseLookup{courses: map[string]*domain.Course{
		"course-1": {ID: "course-1", Title: "Distributed Systems", CourseCode: "CS-501"},
	}}
	svc := NewInstanceService(instances, lookup, testCaller[*domain.Course]("course-service"), newKVStub(), zerolog.Nop())
	return &instanceFixture{svc: svc, instances: instances, lookup: lookup}
}

func TestInstanceService_Create_VerifiesCourseExists(t *testing.T) {
	f := newInstanceFixture()

	instance, err := f.svc.Create(context.Background(), ports.InstanceInput{Year: 2026, Semester: 1, CourseID: "course-1"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if instance.ID == "" {
		t.Fatalf("expected a generated instance ID")
	}

	_, err = f.svc.Create(context.Background(), ports.InstanceInput{Year: 2026, Semester: 1, CourseID: "ghost-course"})
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected NotFound for a missing course, got %v", err)
	}
	if len(f.instances.instances) != 1 {
		t.Fatalf("no instance may be stored for a missing course")
	}
}

func TestInstanceService_Create_CourseServiceUnavailable(t *testing.T) {
	f := newInstanceFixture()
	f.lookup.err = domain.E(domain.KindServiceUnavailable, "connection refused")

	_, err := f.svc.Create(context.Background(), ports.InstanceInput{Year: 2026, Semester: 1, CourseID: "course-1"})
	if !domain.IsKind(err, domain.KindServiceUnavailable) {
		t.Fatalf("expected ServiceUnavailable, got %v", err)
	}
	if domain.MessageOf(err) != "instance creation failed as course service is unavailable, please try again later" {
		t.Fatalf("unexpected fallback message: %q", domain.MessageOf(err))
	}
	if len(f.instances.instances) != 0 {
		t.Fatalf("no instance may be stored when the existence check fails")
	}
}

func TestInstanceService_DeleteByCourse(t *testing.T) {
	f := newInstanceFixture()
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Create(context.Background(), ports.InstanceInput{Year: 2026, Semester: i + 1, CourseID: "course-1"}); err != nil {
			t.Fatalf("seeding instance failed: %v", err)
		}
	}

	deleted, err := f.svc.DeleteByCourse(context.Background(), "course-1")
	if err != nil {
		t.Fatalf("DeleteByCourse returned error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deletions, got %d", deleted)
	}

	// Nothing left: the bulk delete reports NotFound so the caller can tell
	// "already clean" from a real sweep.
	_, err = f.svc.DeleteByCourse(context.Background(), "course-1")
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected NotFound on an empty sweep, got %v", err)
	}
}

func TestInstanceService_GetByYearSemester(t *testing.T) {
	f := newInstanceFixture()
	if _, err := f.svc.Create(context.Background(), ports.InstanceInput{Year: 2026, Semester: 1, CourseID: "course-1"}); err != nil {
		t.Fatalf("seeding instance failed: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), ports.InstanceInput{Year: 2025, Semester: 2, CourseID: "course-1"}); err != nil {
		t.Fatalf("seeding instance failed: %v", err)
	}

	got, err := f.svc.GetByYearSemester(context.Background(), 2026, 1)
	if err != nil {
		t.Fatalf("GetByYearSemester returned error: %v", err)
	}
	if len(got) != 1 || got[0].Year != 2026 || got[0].Semester != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
}
