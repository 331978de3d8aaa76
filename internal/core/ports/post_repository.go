package ports

import (
	"context"
	"time"

	"github.com/ait-forum/forum-api/internal/core/domain"
)

// PostRepository defines persistence operations for forum posts. Comment
// appends and like increments are atomic single-document updates.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, id string) (*domain.Post, error)

	// UpdateFields applies a partial update of title/content; nil fields are
	// left unchanged. The tag set is not touched.
	UpdateFields(ctx context.Context, id string, title, content *string) (*domain.Post, error)

	// Delete removes the post and returns its last snapshot.
	Delete(ctx context.Context, id string) (*domain.Post, error)

	// AppendComment pushes a comment onto the post's comment sequence and
	// returns the updated post.
	AppendComment(ctx context.Context, postID string, comment domain.Comment) (*domain.Post, error)

	// IncrementLike bumps the like counter of one comment. Returns
	// domain.ErrPostNotFound or domain.ErrCommentNotFound.
	IncrementLike(ctx context.Context, postID, commentID string) error

	// FindByAuthor matches the author login case-insensitively.
	FindByAuthor(ctx context.Context, author string) ([]*domain.Post, error)

	// FindByTags returns posts carrying at least one of the given normalized
	// tag keys.
	FindByTags(ctx context.Context, keys []string) ([]*domain.Post, error)

	// FindByDateRange returns posts created within [from, to], both inclusive.
	FindByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Post, error)
}

// TagRepository is the shared tag registry. Tags are value records keyed by
// their normalized name.
type TagRepository interface {
	// GetOrCreate looks the tag up by key and creates it when absent.
	GetOrCreate(ctx context.Context, name string) (*domain.Tag, error)
}
