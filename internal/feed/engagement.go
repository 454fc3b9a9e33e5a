package feed

import (
	"sort"

	"github.com/murmuration-labs/murmur/internal/model"
)

// Engagement ranks posts by weighted engagement (likes + comments), highest
// first. Weights come from the algorithm config ("like_weight",
// "comment_weight", both float64); missing weights default to 1 and 2.
// Ties fall back to recency, then URI ascending.
type Engagement struct{}

func (Engagement) Info() Info {
	return Info{
		ID:          "engagement",
		Name:        "Engagement",
		Description: "Highest weighted like+comment count first.",
	}
}

func (Engagement) Rank(fc Context, candidates []model.Post, limit int) []string {
	likeWeight := configWeight(fc.Config, "like_weight", 1)
	commentWeight := configWeight(fc.Config, "comment_weight", 2)

	score := func(p model.Post) float64 {
		return likeWeight*float64(p.LikeCount) + commentWeight*float64(p.CommentCount)
	}

	posts := make([]model.Post, len(candidates))
	copy(posts, candidates)

	sort.Slice(posts, func(i, j int) bool {
		si, sj := score(posts[i]), score(posts[j])
		if si != sj {
			return si > sj
		}
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

func configWeight(config map[string]any, key string, def float64) float64 {
	if v, ok := config[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}
