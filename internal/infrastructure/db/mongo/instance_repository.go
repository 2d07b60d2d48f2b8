package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

const instanceCollection = "course_instances"

// InstanceRepository persists course instances.
type InstanceRepository struct {
	coll *mongo.Collection
}

func NewInstanceRepository(db *mongo.Database) *InstanceRepository {
	return &InstanceRepository{coll: db.Collection(instanceCollection)}
}

type mongoInstance struct {
	ID       string `bson:"_id"`
	Year     int    `bson:"year"`
	Semester int    `bson:"semester"`
	CourseID string `bson:"course_id"`
}

func (mi mongoInstance) toDomain() *domain.CourseInstance {
	return &domain.CourseInstance{
		ID:       mi.ID,
		Year:     mi.Year,
		Semester: mi.Semester,
		CourseID: mi.CourseID,
	}
}

func (r *InstanceRepository) Create(ctx context.Context, instance *domain.CourseInstance) error {
	doc := mongoInstance{
		ID:       instance.ID,
		Year:     instance.Year,
		Semester: instance.Semester,
		CourseID: instance.CourseID,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, err, "instance store unavailable")
	}
	return nil
}

func (r *InstanceRepository) FindAll(ctx context.Context) ([]*domain.CourseInstance, error) {
	return r.find(ctx, bson.M{})
}

func (r *InstanceRepository) FindByYearSemester(ctx context.Context, year, semester int) ([]*domain.CourseInstance, error) {
	return r.find(ctx, bson.M{"year": year, "semester": semester})
}

func (r *InstanceRepository) find(ctx context.Context, filter bson.M) ([]*domain.CourseInstance, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "instance store unavailable")
	}
	defer cur.Close(ctx)

	var instances []*domain.CourseInstance
	for cur.Next(ctx) {
		var mi mongoInstance
		if err := cur.Decode(&mi); err != nil {
			return nil, domain.Wrap(domain.KindStoreUnavailable, err, "instance store unavailable")
		}
		instances = append(instances, mi.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "instance store unavailable")
	}
	return instances, nil
}

func (r *InstanceRepository) FindByID(ctx context.Context, year, semester int, id string) (*domain.CourseInstance, error) {
	var mi mongoInstance
	filter := bson.M{"_id": id, "year": year, "semester": semester}
	if err := r.coll.FindOne(ctx, filter).Decode(&mi); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.E(domain.KindNotFound, "course instance not found with id %s for year %d semester %d", id, year, semester)
		}
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "instance store unavailable")
	}
	return mi.toDomain(), nil
}

func (r *InstanceRepository) DeleteByCourseID(ctx context.Context, courseID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"course_id": courseID})
	if err != nil {
		return 0, domain.Wrap(domain.KindStoreUnavailable, err, "instance store unavailable")
	}
	return res.DeletedCount, nil
}
