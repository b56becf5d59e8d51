package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

const identitiesCollection = "user_identities"

// IdentityRepository stores one UserIdentity document per user, keyed by the
// user id. Writes are conditional on the version field.
type IdentityRepository struct {
	col *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{col: db.Collection(identitiesCollection)}
}

func (r *IdentityRepository) FindByUserID(ctx context.Context, userID string) (*domain.UserIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id domain.UserIdentity
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &id, nil
}

// Save inserts a new record (Version 0) or replaces the stored one when its
// version still matches. Either way Version is incremented on success.
func (r *IdentityRepository) Save(ctx context.Context, id *domain.UserIdentity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	expected := id.Version
	next := *id
	next.Version = expected + 1
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = time.Now().UTC()
	}

	if expected == 0 {
		if _, err := r.col.InsertOne(ctx, &next); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrConflict
			}
			return fmt.Errorf("insert identity: %w", err)
		}
		id.Version = next.Version
		return nil
	}

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": id.UserID, "version": expected}, &next)
	if err != nil {
		return fmt.Errorf("replace identity: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConflict
	}
	id.Version = next.Version
	return nil
}

// EnsureIndexes creates the lookup indexes used by admin tooling.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tier2.status", Value: 1}}},
		{Keys: bson.D{{Key: "tier1.status", Value: 1}, {Key: "updated_at", Value: -1}}},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("ensure identity indexes: %w", err)
	}
	return nil
}
