package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ait-forum/forum-api/internal/core/domain"
	"github.com/ait-forum/forum-api/internal/core/ports"
)

// PostService implements the forum use cases: post lifecycle, comments,
// likes and the read-only projections.
type PostService struct {
	posts ports.PostRepository
	tags  ports.TagRepository
	log   zerolog.Logger
}

func NewPostService(posts ports.PostRepository, tags ports.TagRepository, log zerolog.Logger) *PostService {
	return &PostService{posts: posts, tags: tags, log: log}
}

// CreatePost resolves each tag name against the shared registry
// (get-or-create) and persists a new post carrying the resolved keys.
func (s *PostService) CreatePost(ctx context.Context, author string, in ports.NewPostInput) (*domain.Post, error) {
	keys := make([]string, 0, len(in.Tags))
	seen := make(map[string]struct{}, len(in.Tags))
	for _, name := range in.Tags {
		if domain.NormalizeTag(name) == "" {
			continue
		}
		tag, err := s.tags.GetOrCreate(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("create post: resolve tag %q: %w", name, err)
		}
		if _, dup := seen[tag.Key]; dup {
			continue
		}
		seen[tag.Key] = struct{}{}
		keys = append(keys, tag.Key)
	}

	post := &domain.Post{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Content:     in.Content,
		Author:      author,
		Tags:        keys,
		Comments:    []domain.Comment{},
		DateCreated: time.Now().UTC(),
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.log.Info().Str("post_id", post.ID).Str("author", author).Int("tags", len(keys)).Msg("post created")
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	return s.posts.FindByID(ctx, id)
}

// UpdatePost applies a partial update of title and content. The tag set is
// deliberately left untouched.
func (s *PostService) UpdatePost(ctx context.Context, id string, in ports.UpdatePostInput) (*domain.Post, error) {
	return s.posts.UpdateFields(ctx, id, in.Title, in.Content)
}

func (s *PostService) DeletePost(ctx context.Context, id string) (*domain.Post, error) {
	deleted, err := s.posts.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("post_id", id).Msg("post deleted")
	return deleted, nil
}

func (s *PostService) AddComment(ctx context.Context, postID, author, message string) (*domain.Post, error) {
	comment := domain.Comment{
		ID:          uuid.NewString(),
		Author:      author,
		Message:     message,
		DateCreated: time.Now().UTC(),
	}
	return s.posts.AppendComment(ctx, postID, comment)
}

func (s *PostService) AddLike(ctx context.Context, postID, commentID string) error {
	return s.posts.IncrementLike(ctx, postID, commentID)
}

func (s *PostService) FindByAuthor(ctx context.Context, author string) ([]*domain.Post, error) {
	return s.posts.FindByAuthor(ctx, author)
}

func (s *PostService) FindByTags(ctx context.Context, tagNames []string) ([]*domain.Post, error) {
	keys := make([]string, 0, len(tagNames))
	for _, name := range tagNames {
		if key := domain.NormalizeTag(name); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return []*domain.Post{}, nil
	}
	return s.posts.FindByTags(ctx, keys)
}

// FindByPeriod returns posts created within [from, to]. Both endpoints are
// inclusive: from is promoted to start-of-day, to to end-of-day (UTC).
func (s *PostService) FindByPeriod(ctx context.Context, from, to time.Time) ([]*domain.Post, error) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	return s.posts.FindByDateRange(ctx, start, end)
}
