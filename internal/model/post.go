package model

import "time"

// Post is a content unit in the candidate corpus. Posts are a read-only
// source for feed generation; engagement counters reflect the corpus, not
// simulated actions.
type Post struct {
	URI          string    `json:"uri"`
	AuthorHandle string    `json:"author_handle"`
	Text         string    `json:"text"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}
