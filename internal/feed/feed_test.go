package feed_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmuration-labs/murmur/internal/feed"
	"github.com/murmuration-labs/murmur/internal/model"
)

func post(uri, author string, createdAt time.Time, likes, comments int) model.Post {
	return model.Post{
		URI:          uri,
		AuthorHandle: author,
		Text:         "post " + uri,
		LikeCount:    likes,
		CommentCount: comments,
		CreatedAt:    createdAt,
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := feed.NewDefaultRegistry()
	_, err := r.Get("no-such-algorithm")
	require.ErrorIs(t, err, feed.ErrUnknownAlgorithm)
}

func TestRegistry_List(t *testing.T) {
	r := feed.NewDefaultRegistry()
	infos := r.List()
	require.Len(t, infos, 3)
	// Ordered by id.
	assert.Equal(t, "chronological", infos[0].ID)
	assert.Equal(t, "engagement", infos[1].ID)
	assert.Equal(t, "shuffled", infos[2].ID)
	for _, info := range infos {
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Description)
	}
}

func TestChronological_NewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	candidates := []model.Post{
		post("p-old", "alice", base.Add(-2*time.Hour), 0, 0),
		post("p-new", "bob", base, 0, 0),
		post("p-mid", "carol", base.Add(-time.Hour), 0, 0),
	}

	got := feed.Chronological{}.Rank(feed.Context{}, candidates, 20)
	assert.Equal(t, []string{"p-new", "p-mid", "p-old"}, got)
}

func TestChronological_TieBreakByURI(t *testing.T) {
	// Identical timestamps, inserted as p2 then p1: lexicographic URI order
	// must win over insertion order.
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	candidates := []model.Post{
		post("p2", "alice", ts, 0, 0),
		post("p1", "bob", ts, 0, 0),
	}

	got := feed.Chronological{}.Rank(feed.Context{}, candidates, 20)
	assert.Equal(t, []string{"p1", "p2"}, got)
}

func TestChronological_Deterministic(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	candidates := []model.Post{
		post("pa", "alice", base, 0, 0),
		post("pb", "bob", base, 0, 0),
		post("pc", "carol", base.Add(time.Minute), 0, 0),
	}

	first := feed.Chronological{}.Rank(feed.Context{}, candidates, 20)
	for range 10 {
		assert.Equal(t, first, feed.Chronological{}.Rank(feed.Context{}, candidates, 20))
	}
}

func TestChronological_Truncates(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var candidates []model.Post
	for i := range 30 {
		candidates = append(candidates, post(
			string(rune('a'+i%26))+"-post", "alice", base.Add(time.Duration(i)*time.Minute), 0, 0))
	}

	got := feed.Chronological{}.Rank(feed.Context{}, candidates, 20)
	assert.Len(t, got, 20)
}

func TestEngagement_Order(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	candidates := []model.Post{
		post("p-quiet", "alice", base, 1, 0),
		post("p-hot", "bob", base, 10, 5),
		post("p-warm", "carol", base, 5, 1),
	}

	got := feed.Engagement{}.Rank(feed.Context{}, candidates, 20)
	assert.Equal(t, []string{"p-hot", "p-warm", "p-quiet"}, got)
}

func TestEngagement_ConfigWeights(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	candidates := []model.Post{
		post("p-likes", "alice", base, 10, 0),
		post("p-comments", "bob", base, 0, 4),
	}

	// Default weights (1, 2): likes win 10 vs 8.
	got := feed.Engagement{}.Rank(feed.Context{}, candidates, 20)
	assert.Equal(t, []string{"p-likes", "p-comments"}, got)

	// Comment-heavy weights flip the order: 10 vs 40.
	fc := feed.Context{Config: map[string]any{"comment_weight": float64(10)}}
	got = feed.Engagement{}.Rank(fc, candidates, 20)
	assert.Equal(t, []string{"p-comments", "p-likes"}, got)
}

func TestEngagement_TieBreak(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	candidates := []model.Post{
		post("z-post", "alice", ts, 3, 0),
		post("a-post", "bob", ts, 3, 0),
	}

	got := feed.Engagement{}.Rank(feed.Context{}, candidates, 20)
	assert.Equal(t, []string{"a-post", "z-post"}, got)
}

func TestShuffled_DeterministicPerSeed(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var candidates []model.Post
	for i := range 10 {
		candidates = append(candidates, post(
			string(rune('a'+i))+"-post", "alice", base, 0, 0))
	}

	agent := model.Agent{Handle: "alice"}
	fc := feed.Context{Agent: agent, Turn: 3, Seed: 42}

	first := feed.Shuffled{}.Rank(fc, candidates, 20)
	require.Len(t, first, 10)
	for range 5 {
		assert.Equal(t, first, feed.Shuffled{}.Rank(fc, candidates, 20))
	}

	// Insertion order must not matter.
	reversed := make([]model.Post, len(candidates))
	for i, p := range candidates {
		reversed[len(candidates)-1-i] = p
	}
	assert.Equal(t, first, feed.Shuffled{}.Rank(fc, reversed, 20))

	// A different turn yields a different stream.
	other := feed.Shuffled{}.Rank(feed.Context{Agent: agent, Turn: 4, Seed: 42}, candidates, 20)
	assert.NotEqual(t, first, other)
}
