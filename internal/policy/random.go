package policy

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/murmuration-labs/murmur/internal/model"
)

// PolicyRandomSimple selects actions by seeded coin flips: a pure function of
// (run seed, turn, agent, candidates), useful as a deterministic baseline.
const PolicyRandomSimple = "random-simple"

const (
	randomLikeRate    = 0.3
	randomCommentRate = 0.15
	randomFollowRate  = 0.1
)

// RandomLike likes each feed post with a fixed seeded probability.
type RandomLike struct{}

func (RandomLike) Info() Info {
	return Info{
		ActionType:  model.ActionLike,
		PolicyID:    PolicyRandomSimple,
		Description: "Seeded coin flip per feed post.",
	}
}

func (RandomLike) Generate(_ context.Context, pc Context, feed []model.Post) ([]model.GeneratedLike, error) {
	rng := rand.New(rand.NewPCG(uint64(pc.Seed), subSeed(pc, "like")))
	var likes []model.GeneratedLike
	for _, p := range feed {
		if rng.Float64() >= randomLikeRate {
			continue
		}
		likes = append(likes, model.GeneratedLike{
			RunID:       pc.RunID,
			Turn:        pc.Turn,
			AgentHandle: pc.Agent.Handle,
			PostURI:     p.URI,
		})
	}
	return likes, nil
}

// RandomComment comments on feed posts with a fixed seeded probability,
// using a template rotation for text.
type RandomComment struct{}

func (RandomComment) Info() Info {
	return Info{
		ActionType:  model.ActionComment,
		PolicyID:    PolicyRandomSimple,
		Description: "Seeded coin flip per feed post with templated text.",
	}
}

var commentTemplates = []string{
	"Interesting take, @%s.",
	"This resonates with me.",
	"Not sure I agree with @%s here.",
	"Great point!",
	"Following this thread closely.",
}

func (RandomComment) Generate(_ context.Context, pc Context, feed []model.Post) ([]model.GeneratedComment, error) {
	rng := rand.New(rand.NewPCG(uint64(pc.Seed), subSeed(pc, "comment")))
	var comments []model.GeneratedComment
	for _, p := range feed {
		if rng.Float64() >= randomCommentRate {
			continue
		}
		tmpl := commentTemplates[rng.IntN(len(commentTemplates))]
		text := tmpl
		if strings.Contains(tmpl, "%s") {
			text = fmt.Sprintf(tmpl, p.AuthorHandle)
		}
		comments = append(comments, model.GeneratedComment{
			RunID:       pc.RunID,
			Turn:        pc.Turn,
			AgentHandle: pc.Agent.Handle,
			PostURI:     p.URI,
			Text:        text,
		})
	}
	return comments, nil
}

// RandomFollow follows candidate authors with a fixed seeded probability.
type RandomFollow struct{}

func (RandomFollow) Info() Info {
	return Info{
		ActionType:  model.ActionFollow,
		PolicyID:    PolicyRandomSimple,
		Description: "Seeded coin flip per visible feed author.",
	}
}

func (RandomFollow) Generate(_ context.Context, pc Context, candidates []FollowCandidate) ([]model.GeneratedFollow, error) {
	rng := rand.New(rand.NewPCG(uint64(pc.Seed), subSeed(pc, "follow")))
	var follows []model.GeneratedFollow
	for _, c := range candidates {
		if rng.Float64() >= randomFollowRate {
			continue
		}
		follows = append(follows, model.GeneratedFollow{
			RunID:        pc.RunID,
			Turn:         pc.Turn,
			AgentHandle:  pc.Agent.Handle,
			TargetHandle: c.Handle,
		})
	}
	return follows, nil
}
