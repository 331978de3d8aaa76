package handler

import "time"

type newPostRequest struct {
	Title   string   `json:"title"   validate:"required,max=200"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags"`
}

// updatePostRequest uses pointer fields as presence markers; the tag set is
// never touched by an update.
type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type newCommentRequest struct {
	Message string `json:"message" validate:"required"`
}

type commentResponse struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Message     string    `json:"message"`
	DateCreated time.Time `json:"date_created"`
	Likes       int       `json:"likes"`
}

type postResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Author      string            `json:"author"`
	Tags        []string          `json:"tags"`
	Comments    []commentResponse `json:"comments"`
	DateCreated time.Time         `json:"date_created"`
}
