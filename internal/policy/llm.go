package policy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/murmuration-labs/murmur/internal/llm"
	"github.com/murmuration-labs/murmur/internal/model"
)

// PolicyNaiveLLM asks the configured completer to pick candidates from the
// feed in a single structured call per decision.
const PolicyNaiveLLM = "naive-llm"

// selection is one candidate the model picked; Text is only used by comments.
type selection struct {
	ID   string `json:"id"`
	Text string `json:"text,omitempty"`
}

type decision struct {
	Selections []selection `json:"selections"`
}

// selectionSchema is the JSON schema bound to every policy completion.
// withText adds the free-text field comments need.
func selectionSchema(withText bool) map[string]any {
	item := map[string]any{
		"id": map[string]any{
			"type":        "string",
			"description": "Candidate id, verbatim from the list.",
		},
	}
	required := []string{"id"}
	if withText {
		item["text"] = map[string]any{
			"type":        "string",
			"description": "The comment text to post.",
		}
		required = append(required, "text")
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": item,
					"required":   required,
				},
			},
		},
		"required": []string{"selections"},
	}
}

// decide is the scaffolding shared by all three LLM-backed generators: it
// issues the structured completion, drops selections whose id is not in the
// valid candidate set (model hallucination is expected, not an error),
// dedupes, and sorts by id so downstream processing is deterministic
// regardless of the model's output order.
func decide(ctx context.Context, completer llm.Completer, req llm.Request, valid map[string]bool) ([]selection, error) {
	var out decision
	if err := completer.Complete(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("policy: structured completion: %w", err)
	}

	seen := make(map[string]bool)
	var kept []selection
	for _, s := range out.Selections {
		if !valid[s.ID] || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		kept = append(kept, s)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].ID < kept[j].ID })
	return kept, nil
}

func personaLine(agent model.Agent) string {
	if agent.Persona != "" {
		return agent.Persona
	}
	return fmt.Sprintf("You are %s (@%s), a social network user.", agent.DisplayName, agent.Handle)
}

func feedListing(feed []model.Post) string {
	var b strings.Builder
	for _, p := range feed {
		fmt.Fprintf(&b, "- id=%s by @%s: %s\n", p.URI, p.AuthorHandle, p.Text)
	}
	return b.String()
}

func validURIs(feed []model.Post) map[string]bool {
	valid := make(map[string]bool, len(feed))
	for _, p := range feed {
		valid[p.URI] = true
	}
	return valid
}

// LLMLike asks the completer which feed posts the agent would like.
type LLMLike struct {
	Completer llm.Completer
}

func (LLMLike) Info() Info {
	return Info{
		ActionType:  model.ActionLike,
		PolicyID:    PolicyNaiveLLM,
		Description: "One structured completion choosing posts to like.",
	}
}

func (g LLMLike) Generate(ctx context.Context, pc Context, feed []model.Post) ([]model.GeneratedLike, error) {
	if len(feed) == 0 {
		return nil, nil
	}
	req := llm.Request{
		System: personaLine(pc.Agent),
		Prompt: fmt.Sprintf(
			"Here is your feed this turn:\n%s\nPick the posts you would like. Reply with their ids. Picking none is fine.",
			feedListing(feed)),
		Schema: selectionSchema(false),
	}
	selections, err := decide(ctx, g.Completer, req, validURIs(feed))
	if err != nil {
		return nil, err
	}

	likes := make([]model.GeneratedLike, 0, len(selections))
	for _, s := range selections {
		likes = append(likes, model.GeneratedLike{
			RunID:       pc.RunID,
			Turn:        pc.Turn,
			AgentHandle: pc.Agent.Handle,
			PostURI:     s.ID,
		})
	}
	return likes, nil
}

// LLMComment asks the completer which feed posts the agent would comment on,
// and with what text.
type LLMComment struct {
	Completer llm.Completer
}

func (LLMComment) Info() Info {
	return Info{
		ActionType:  model.ActionComment,
		PolicyID:    PolicyNaiveLLM,
		Description: "One structured completion choosing posts to comment on, with text.",
	}
}

func (g LLMComment) Generate(ctx context.Context, pc Context, feed []model.Post) ([]model.GeneratedComment, error) {
	if len(feed) == 0 {
		return nil, nil
	}
	req := llm.Request{
		System: personaLine(pc.Agent),
		Prompt: fmt.Sprintf(
			"Here is your feed this turn:\n%s\nPick the posts you would reply to and write a short comment for each. Reply with post ids and comment text. Picking none is fine.",
			feedListing(feed)),
		Schema: selectionSchema(true),
	}
	selections, err := decide(ctx, g.Completer, req, validURIs(feed))
	if err != nil {
		return nil, err
	}

	comments := make([]model.GeneratedComment, 0, len(selections))
	for _, s := range selections {
		comments = append(comments, model.GeneratedComment{
			RunID:       pc.RunID,
			Turn:        pc.Turn,
			AgentHandle: pc.Agent.Handle,
			PostURI:     s.ID,
			Text:        s.Text,
		})
	}
	return comments, nil
}

// LLMFollow asks the completer which visible authors the agent would follow.
type LLMFollow struct {
	Completer llm.Completer
}

func (LLMFollow) Info() Info {
	return Info{
		ActionType:  model.ActionFollow,
		PolicyID:    PolicyNaiveLLM,
		Description: "One structured completion choosing authors to follow.",
	}
}

func (g LLMFollow) Generate(ctx context.Context, pc Context, candidates []FollowCandidate) ([]model.GeneratedFollow, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var b strings.Builder
	valid := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		fmt.Fprintf(&b, "- id=%s, latest post: %s\n", c.Handle, c.LatestPost.Text)
		valid[c.Handle] = true
	}

	req := llm.Request{
		System: personaLine(pc.Agent),
		Prompt: fmt.Sprintf(
			"These authors appeared in your feed this turn:\n%s\nPick the authors you would follow. Reply with their ids. Picking none is fine.",
			b.String()),
		Schema: selectionSchema(false),
	}
	selections, err := decide(ctx, g.Completer, req, valid)
	if err != nil {
		return nil, err
	}

	follows := make([]model.GeneratedFollow, 0, len(selections))
	for _, s := range selections {
		follows = append(follows, model.GeneratedFollow{
			RunID:        pc.RunID,
			Turn:         pc.Turn,
			AgentHandle:  pc.Agent.Handle,
			TargetHandle: s.ID,
		})
	}
	return follows, nil
}

// NewDefaultRegistry returns a registry with the random-simple policies and,
// when a completer is supplied, the naive-llm policies.
func NewDefaultRegistry(completer llm.Completer) *Registry {
	r := NewRegistry()
	r.RegisterLike(RandomLike{})
	r.RegisterComment(RandomComment{})
	r.RegisterFollow(RandomFollow{})
	if completer != nil {
		r.RegisterLike(LLMLike{Completer: completer})
		r.RegisterComment(LLMComment{Completer: completer})
		r.RegisterFollow(LLMFollow{Completer: completer})
	}
	return r
}
