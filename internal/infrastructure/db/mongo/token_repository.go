package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

const tokenCollection = "tokens"

// TokenRepository persists issued token records. Rows are never deleted; the
// revoke sweep flips both state flags and leaves them for audit.
type TokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{coll: db.Collection(tokenCollection)}
}

type mongoToken struct {
	ID      string `bson:"_id"`
	UserID  string `bson:"user_id"`
	Value   string `bson:"value"`
	Kind    string `bson:"kind"`
	Revoked bool   `bson:"revoked"`
	Expired bool   `bson:"expired"`
}

func (mt mongoToken) toDomain() *domain.Token {
	return &domain.Token{
		ID:      mt.ID,
		UserID:  mt.UserID,
		Value:   mt.Value,
		Kind:    domain.TokenKind(mt.Kind),
		Revoked: mt.Revoked,
		Expired: mt.Expired,
	}
}

func (r *TokenRepository) Create(ctx context.Context, token *domain.Token) error {
	doc := mongoToken{
		ID:      token.ID,
		UserID:  token.UserID,
		Value:   token.Value,
		Kind:    string(token.Kind),
		Revoked: token.Revoked,
		Expired: token.Expired,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, err, "token store unavailable")
	}
	return nil
}

func (r *TokenRepository) FindByValue(ctx context.Context, value string) (*domain.Token, error) {
	var mt mongoToken
	if err := r.coll.FindOne(ctx, bson.M{"value": value}).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.E(domain.KindTokenNotFound, "token not found")
		}
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "token store unavailable")
	}
	return mt.toDomain(), nil
}

func (r *TokenRepository) FindAllUsable(ctx context.Context, userID string) ([]*domain.Token, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID, "revoked": false, "expired": false})
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "token store unavailable")
	}
	defer cur.Close(ctx)

	var tokens []*domain.Token
	for cur.Next(ctx) {
		var mt mongoToken
		if err := cur.Decode(&mt); err != nil {
			return nil, domain.Wrap(domain.KindStoreUnavailable, err, "token store unavailable")
		}
		tokens = append(tokens, mt.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "token store unavailable")
	}
	return tokens, nil
}

func (r *TokenRepository) MarkUnusable(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"revoked": true, "expired": true}},
	)
	if err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, err, "token store unavailable")
	}
	return nil
}
