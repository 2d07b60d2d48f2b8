package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

const courseCollection = "courses"

// CourseRepository persists courses. A unique index on course_code backs the
// duplicate-code Conflict.
type CourseRepository struct {
	coll *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{coll: db.Collection(courseCollection)}
}

type mongoCourse struct {
	ID          string `bson:"_id"`
	Title       string `bson:"title"`
	CourseCode  string `bson:"course_code"`
	Description string `bson:"description"`
}

func (mc mongoCourse) toDomain() *domain.Course {
	return &domain.Course{
		ID:          mc.ID,
		Title:       mc.Title,
		CourseCode:  mc.CourseCode,
		Description: mc.Description,
	}
}

func (r *CourseRepository) Create(ctx context.Context, course *domain.Course) error {
	doc := mongoCourse{
		ID:          course.ID,
		Title:       course.Title,
		CourseCode:  course.CourseCode,
		Description: course.Description,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.E(domain.KindConflict, "course with code %s already exists", course.CourseCode)
		}
		return domain.Wrap(domain.KindStoreUnavailable, err, "course store unavailable")
	}
	return nil
}

func (r *CourseRepository) FindAll(ctx context.Context) ([]*domain.Course, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "course store unavailable")
	}
	defer cur.Close(ctx)

	var courses []*domain.Course
	for cur.Next(ctx) {
		var mc mongoCourse
		if err := cur.Decode(&mc); err != nil {
			return nil, domain.Wrap(domain.KindStoreUnavailable, err, "course store unavailable")
		}
		courses = append(courses, mc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "course store unavailable")
	}
	return courses, nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*domain.Course, error) {
	var mc mongoCourse
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.E(domain.KindNotFound, "course not found with id %s", id)
		}
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "course store unavailable")
	}
	return mc.toDomain(), nil
}

func (r *CourseRepository) FindByCode(ctx context.Context, courseCode string) (*domain.Course, error) {
	var mc mongoCourse
	if err := r.coll.FindOne(ctx, bson.M{"course_code": courseCode}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.E(domain.KindNotFound, "course not found with courseCode %s", courseCode)
		}
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "course store unavailable")
	}
	return mc.toDomain(), nil
}

func (r *CourseRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, err, "course store unavailable")
	}
	if res.DeletedCount == 0 {
		return domain.E(domain.KindNotFound, "course not found with id %s", id)
	}
	return nil
}
