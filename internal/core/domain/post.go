package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrPostNotFound = errors.New("post not found")
var ErrCommentNotFound = errors.New("comment not found")

// Tag is a value shared across posts, keyed by its normalized name.
type Tag struct {
	Key  string // lowercase lookup key
	Name string // display name as first seen
}

// NormalizeTag derives the registry key for a tag name.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Comment belongs to exactly one post; its lifetime is bound to it.
// Everything but the like counter is immutable once created.
type Comment struct {
	ID          string
	Author      string
	Message     string
	DateCreated time.Time
	Likes       int
}

// Post is the forum aggregate root. Comments are append-only from the API's
// perspective; the tag set references the shared tag registry.
type Post struct {
	ID          string
	Title       string
	Content     string
	Author      string
	Tags        []string // normalized tag keys
	Comments    []Comment
	DateCreated time.Time
}

// HasTag reports whether the post carries the given (already normalized) tag key.
func (p *Post) HasTag(key string) bool {
	for _, t := range p.Tags {
		if t == key {
			return true
		}
	}
	return false
}
