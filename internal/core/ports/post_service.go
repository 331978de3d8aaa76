package ports

import (
	"context"
	"time"

	"github.com/ait-forum/forum-api/internal/core/domain"
)

// NewPostInput carries the data for creating a post.
type NewPostInput struct {
	Title   string
	Content string
	Tags    []string
}

// UpdatePostInput is a partial update; nil fields are not touched.
type UpdatePostInput struct {
	Title   *string
	Content *string
}

// PostService defines the forum use cases.
type PostService interface {
	CreatePost(ctx context.Context, author string, in NewPostInput) (*domain.Post, error)
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	UpdatePost(ctx context.Context, id string, in UpdatePostInput) (*domain.Post, error)
	DeletePost(ctx context.Context, id string) (*domain.Post, error)

	AddComment(ctx context.Context, postID, author, message string) (*domain.Post, error)
	AddLike(ctx context.Context, postID, commentID string) error

	FindByAuthor(ctx context.Context, author string) ([]*domain.Post, error)
	FindByTags(ctx context.Context, tagNames []string) ([]*domain.Post, error)

	// FindByPeriod returns posts created between from and to, inclusive of
	// both endpoints; dates are promoted to day boundaries.
	FindByPeriod(ctx context.Context, from, to time.Time) ([]*domain.Post, error)
}
