package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ait-forum/forum-api/internal/core/domain"
)

const tagsCollection = "tags"

// TagRepository implements the shared tag registry. Documents are keyed by
// the normalized tag name, so two posts referencing "Go" and "go" share one
// record.
type TagRepository struct {
	coll *mongo.Collection
}

func NewTagRepository(db *mongo.Database) *TagRepository {
	return &TagRepository{coll: db.Collection(tagsCollection)}
}

type mongoTag struct {
	Key  string `bson:"_id"`
	Name string `bson:"name"`
}

// GetOrCreate upserts the tag in one atomic operation: $setOnInsert writes
// the display name only when the record is new, so concurrent creators of
// the same tag converge on a single document.
func (r *TagRepository) GetOrCreate(ctx context.Context, name string) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	key := domain.NormalizeTag(name)
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var mt mongoTag
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$setOnInsert": bson.M{"name": name}},
		opts,
	).Decode(&mt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Upsert with ReturnDocument(After) always yields a document;
			// treat this as a driver-level anomaly.
			return nil, fmt.Errorf("get-or-create tag %q: no document returned", name)
		}
		return nil, fmt.Errorf("get-or-create tag %q: %w", name, err)
	}

	return &domain.Tag{Key: mt.Key, Name: mt.Name}, nil
}
