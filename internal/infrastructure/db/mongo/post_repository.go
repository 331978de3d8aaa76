package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ait-forum/forum-api/internal/core/domain"
)

const postsCollection = "posts"

// PostRepository implements ports.PostRepository on MongoDB. Comments live
// inside the post document, so appends and like increments are atomic
// single-document updates.
type PostRepository struct {
	coll *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{coll: db.Collection(postsCollection)}
}

type mongoComment struct {
	ID          string    `bson:"id"`
	Author      string    `bson:"author"`
	Message     string    `bson:"message"`
	DateCreated time.Time `bson:"date_created"`
	Likes       int       `bson:"likes"`
}

type mongoPost struct {
	ID          string         `bson:"_id"`
	Title       string         `bson:"title"`
	Content     string         `bson:"content"`
	Author      string         `bson:"author"`
	Tags        []string       `bson:"tags"`
	Comments    []mongoComment `bson:"comments"`
	DateCreated time.Time      `bson:"date_created"`
}

func toMongoPost(p *domain.Post) mongoPost {
	comments := make([]mongoComment, len(p.Comments))
	for i, c := range p.Comments {
		comments[i] = mongoComment(c)
	}
	return mongoPost{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		Author:      p.Author,
		Tags:        p.Tags,
		Comments:    comments,
		DateCreated: p.DateCreated.UTC(),
	}
}

func (m mongoPost) toDomain() *domain.Post {
	comments := make([]domain.Comment, len(m.Comments))
	for i, c := range m.Comments {
		comments[i] = domain.Comment(c)
	}
	return &domain.Post{
		ID:          m.ID,
		Title:       m.Title,
		Content:     m.Content,
		Author:      m.Author,
		Tags:        m.Tags,
		Comments:    comments,
		DateCreated: m.DateCreated.UTC(),
	}
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, toMongoPost(post)); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoPost
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return mp.toDomain(), nil
}

func (r *PostRepository) UpdateFields(ctx context.Context, id string, title, content *string) (*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{}
	if title != nil {
		set["title"] = *title
	}
	if content != nil {
		set["content"] = *content
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mp mongoPost
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return mp.toDomain(), nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) (*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoPost
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("delete post: %w", err)
	}
	return mp.toDomain(), nil
}

func (r *PostRepository) AppendComment(ctx context.Context, postID string, comment domain.Comment) (*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$push": bson.M{"comments": mongoComment(comment)}}

	var mp mongoPost
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": postID}, update, opts).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("append comment: %w", err)
	}
	return mp.toDomain(), nil
}

// IncrementLike bumps one comment's like counter via a positional update.
func (r *PostRepository) IncrementLike(ctx context.Context, postID, commentID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": postID, "comments.id": commentID},
		bson.M{"$inc": bson.M{"comments.$.likes": 1}},
	)
	if err != nil {
		return fmt.Errorf("increment like: %w", err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing post from a missing comment.
		if _, ferr := r.FindByID(ctx, postID); ferr != nil {
			return ferr
		}
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *PostRepository) FindByAuthor(ctx context.Context, author string) ([]*domain.Post, error) {
	filter := bson.M{"author": bson.M{"$regex": primitive.Regex{
		Pattern: "^" + escapeRegex(author) + "$",
		Options: "i",
	}}}
	return r.find(ctx, filter)
}

func (r *PostRepository) FindByTags(ctx context.Context, keys []string) ([]*domain.Post, error) {
	return r.find(ctx, bson.M{"tags": bson.M{"$in": keys}})
}

func (r *PostRepository) FindByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Post, error) {
	return r.find(ctx, bson.M{"date_created": bson.M{"$gte": from, "$lte": to}})
}

func (r *PostRepository) find(ctx context.Context, filter bson.M) ([]*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date_created", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Post
	for cur.Next(ctx) {
		var mp mongoPost
		if err := cur.Decode(&mp); err != nil {
			return nil, fmt.Errorf("decode post: %w", err)
		}
		out = append(out, mp.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

func escapeRegex(s string) string {
	return regexp.QuoteMeta(s)
}

// EnsureIndexes creates the query indexes for the posts collection.
func (r *PostRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "date_created", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
