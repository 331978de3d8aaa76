package handler

import "github.com/ait-forum/forum-api/internal/core/domain"

func toPostResponse(p *domain.Post) postResponse {
	comments := make([]commentResponse, len(p.Comments))
	for i, c := range p.Comments {
		comments[i] = commentResponse{
			ID:          c.ID,
			Author:      c.Author,
			Message:     c.Message,
			DateCreated: c.DateCreated,
			Likes:       c.Likes,
		}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return postResponse{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		Author:      p.Author,
		Tags:        tags,
		Comments:    comments,
		DateCreated: p.DateCreated,
	}
}

func toPostResponses(posts []*domain.Post) []postResponse {
	out := make([]postResponse, len(posts))
	for i, p := range posts {
		out[i] = toPostResponse(p)
	}
	return out
}
