package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmuration-labs/murmur/internal/llm"
)

type decision struct {
	IDs []string `json:"ids"`
}

func TestMockCompleter_MatchBySubstring(t *testing.T) {
	mock := llm.NewMockCompleter()
	mock.AddResponse("pick posts", `{"ids":["p1","p2"]}`)

	var out decision
	err := mock.Complete(context.Background(), llm.Request{Prompt: "please pick posts to like"}, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, out.IDs)
	assert.Equal(t, 1, mock.Calls())
}

func TestMockCompleter_Fallback(t *testing.T) {
	mock := llm.NewMockCompleter()
	mock.SetFallback(`{"ids":[]}`)

	var out decision
	err := mock.Complete(context.Background(), llm.Request{Prompt: "unmatched"}, &out)
	require.NoError(t, err)
	assert.Empty(t, out.IDs)
}

func TestMockCompleter_FailWith(t *testing.T) {
	mock := llm.NewMockCompleter()
	wantErr := errors.New("provider timeout")
	mock.FailWith(wantErr)

	var out decision
	err := mock.Complete(context.Background(), llm.Request{Prompt: "anything"}, &out)
	require.ErrorIs(t, err, wantErr)
}

func TestMockCompleter_ContextCancelled(t *testing.T) {
	mock := llm.NewMockCompleter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out decision
	err := mock.Complete(ctx, llm.Request{Prompt: "anything"}, &out)
	require.ErrorIs(t, err, context.Canceled)
}
