package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
)

// AnthropicOptions configures the Anthropic completer (model id, max tokens,
// temperature, API key). Extend via functional options to preserve stability.
type AnthropicOptions struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	Timeout     time.Duration
}

// AnthropicCompleter implements Completer against the Anthropic Messages API.
// Structured output is obtained by exposing a single tool whose input schema
// is the requested response schema and forcing the model to call it.
type AnthropicCompleter struct {
	client *anthropic.Client
	opts   AnthropicOptions
}

// NewAnthropicCompleter creates a completer using the official client.
func NewAnthropicCompleter(optFns ...func(o *AnthropicOptions)) *AnthropicCompleter {
	opts := AnthropicOptions{
		Model:       anthropic.ModelClaude3_5Haiku20241022,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(opts.Timeout))
	}
	client := anthropic.NewClient(clientOpts...)

	return &AnthropicCompleter{client: &client, opts: opts}
}

// respondToolName is the single tool the model is forced to call; its input
// is the structured response.
const respondToolName = "respond"

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, req Request, out any) error {
	inputSchema := anthropic.ToolInputSchemaParam{
		Type: constant.Object("object"),
	}
	if props, ok := req.Schema["properties"]; ok {
		inputSchema.Properties = props
	}
	if required, ok := req.Schema["required"].([]string); ok {
		inputSchema.Required = required
	}

	params := anthropic.MessageNewParams{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Tools: []anthropic.ToolUnionParam{
			anthropic.ToolUnionParamOfTool(inputSchema, respondToolName),
		},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: respondToolName},
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return fmt.Errorf("llm: anthropic completion: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type != "tool_use" {
			continue
		}
		toolBlock := block.AsToolUse()
		if toolBlock.Name != respondToolName {
			continue
		}
		raw, err := json.Marshal(toolBlock.Input)
		if err != nil {
			return fmt.Errorf("llm: anthropic tool input: %w", err)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("llm: anthropic response shape: %w", err)
		}
		return nil
	}

	return fmt.Errorf("llm: anthropic response contained no %s tool call", respondToolName)
}
