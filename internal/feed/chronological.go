package feed

import (
	"sort"

	"github.com/murmuration-labs/murmur/internal/model"
)

// Chronological ranks posts newest first. Posts with identical timestamps are
// ordered by URI ascending, never by insertion order.
type Chronological struct{}

func (Chronological) Info() Info {
	return Info{
		ID:          "chronological",
		Name:        "Chronological",
		Description: "Newest posts first, ties broken by post URI.",
	}
}

func (Chronological) Rank(_ Context, candidates []model.Post, limit int) []string {
	posts := make([]model.Post, len(candidates))
	copy(posts, candidates)

	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].URI < posts[j].URI
	})

	uris := make([]string, len(posts))
	for i, p := range posts {
		uris[i] = p.URI
	}
	return truncate(uris, limit)
}
