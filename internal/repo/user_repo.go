package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/coursecraft/coursecraft-api/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	u.CreatedAt = time.Now().UTC()
	res, err := s.colUsers.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *Store) FindUserByGoogleID(ctx context.Context, sub string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"google_id": sub})
}

// FindUserByResetToken matches the stored hash and rejects expired tokens at
// the query level, so callers never see a stale token as valid.
func (s *Store) FindUserByResetToken(ctx context.Context, hashed string, now time.Time) (*domain.User, error) {
	return s.findOne(ctx, bson.M{
		"reset_token":        hashed,
		"reset_token_expire": bson.M{"$gt": now},
	})
}

func (s *Store) FindUserByVerifyToken(ctx context.Context, hashed string, now time.Time) (*domain.User, error) {
	return s.findOne(ctx, bson.M{
		"verify_token":        hashed,
		"verify_token_expire": bson.M{"$gt": now},
	})
}

// UpdateUser replaces the stored document. Token fields left empty on u are
// cleared, which is how one-time tokens get consumed.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	res, err := s.colUsers.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	cur, err := s.colUsers.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []domain.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var u domain.User
	err := s.colUsers.FindOne(ctx, filter).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
