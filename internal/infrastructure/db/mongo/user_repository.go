package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// UserRepository persists users in a service-local collection. The auth and
// user services instantiate it against different databases; unique indexes on
// email and phone back the Conflict checks.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database, collection string) *UserRepository {
	return &UserRepository{coll: db.Collection(collection)}
}

type mongoUser struct {
	ID                    string   `bson:"_id"`
	FullName              string   `bson:"full_name"`
	Email                 string   `bson:"email"`
	PasswordHash          string   `bson:"password_hash"`
	Phone                 string   `bson:"phone"`
	Roles                 []string `bson:"roles"`
	AccountNonExpired     bool     `bson:"account_non_expired"`
	AccountNonLocked      bool     `bson:"account_non_locked"`
	CredentialsNonExpired bool     `bson:"credentials_non_expired"`
	Enabled               bool     `bson:"enabled"`
}

func toMongoUser(u *domain.User) mongoUser {
	return mongoUser{
		ID:                    u.ID,
		FullName:              u.FullName,
		Email:                 u.Email,
		PasswordHash:          u.PasswordHash,
		Phone:                 u.Phone,
		Roles:                 domain.RoleNames(u.Roles),
		AccountNonExpired:     u.AccountNonExpired,
		AccountNonLocked:      u.AccountNonLocked,
		CredentialsNonExpired: u.CredentialsNonExpired,
		Enabled:               u.Enabled,
	}
}

func (mu mongoUser) toDomain() *domain.User {
	roles := make([]domain.Role, len(mu.Roles))
	for i, r := range mu.Roles {
		roles[i] = domain.Role(r)
	}
	return &domain.User{
		ID:                    mu.ID,
		FullName:              mu.FullName,
		Email:                 mu.Email,
		PasswordHash:          mu.PasswordHash,
		Phone:                 mu.Phone,
		Roles:                 roles,
		AccountNonExpired:     mu.AccountNonExpired,
		AccountNonLocked:      mu.AccountNonLocked,
		CredentialsNonExpired: mu.CredentialsNonExpired,
		Enabled:               mu.Enabled,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.coll.InsertOne(ctx, toMongoUser(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.E(domain.KindConflict, "user with email %s or phone %s already exists", user.Email, user.Phone)
		}
		return domain.Wrap(domain.KindStoreUnavailable, err, "user store unavailable")
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.E(domain.KindNotFound, "user not found with email %s", email)
		}
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "user store unavailable")
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "user store unavailable")
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, mu.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "user store unavailable")
	}
	return users, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *UserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, bson.M{"phone": phone})
}

func (r *UserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return false, domain.Wrap(domain.KindStoreUnavailable, err, "user store unavailable")
	}
	return n > 0, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, toMongoUser(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.E(domain.KindConflict, "user with email %s or phone %s already exists", user.Email, user.Phone)
		}
		return domain.Wrap(domain.KindStoreUnavailable, err, "user store unavailable")
	}
	if res.MatchedCount == 0 {
		return domain.E(domain.KindNotFound, "user not found with id %s", user.ID)
	}
	return nil
}

func (r *UserRepository) DeleteByEmail(ctx context.Context, email string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, err, "user store unavailable")
	}
	if res.DeletedCount == 0 {
		return domain.E(domain.KindNotFound, "user not found with email %s", email)
	}
	return nil
}
