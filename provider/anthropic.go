package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/toolmesh/core"
)

// AnthropicOptions configure the Anthropic provider (model id, temperature,
// max tokens, API key). Extend via functional options to preserve stability.
type AnthropicOptions struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Anthropic wraps the Anthropic Messages API behind the Provider interface.
type Anthropic struct {
	client *anthropic.Client
	opts   AnthropicOptions
}

// NewAnthropic creates a provider using the official client.
func NewAnthropic(optFns ...func(o *AnthropicOptions)) *Anthropic {
	opts := AnthropicOptions{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Anthropic{client: &client, opts: opts}
}

// NewAnthropicFromClient creates a provider from an existing client.
func NewAnthropicFromClient(client *anthropic.Client, optFns ...func(o *AnthropicOptions)) *Anthropic {
	opts := AnthropicOptions{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Anthropic{client: client, opts: opts}
}

// Complete sends one Messages API round-trip and decodes the reply into the
// normalized envelope as native content blocks.
func (p *Anthropic) Complete(ctx context.Context, req *core.Request) (*core.Response, error) {
	model := p.opts.Model
	if req.Model != "" {
		model = anthropic.Model(req.Model)
	}

	params := anthropic.MessageNewParams{
		Model:       model,
		Messages:    buildAnthropicMessages(req.Messages),
		MaxTokens:   p.opts.MaxTokens,
		Temperature: anthropic.Float(p.opts.Temperature),
	}

	if systemBlocks := extractSystemBlocks(req.Messages); len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if len(req.Tools) > 0 {
		params.Tools = buildAnthropicTools(req.Tools)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	out := &core.Response{
		ID:         resp.ID,
		Model:      string(resp.Model),
		StopReason: string(resp.StopReason),
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textBlock := block.AsText()
			out.Blocks = append(out.Blocks, core.Block{Type: "text", Text: textBlock.Text})
		case "tool_use":
			toolBlock := block.AsToolUse()
			var input json.RawMessage
			if toolBlock.Input != nil {
				if b, err := json.Marshal(toolBlock.Input); err == nil {
					input = b
				}
			}
			out.Blocks = append(out.Blocks, core.Block{
				Type:  "tool_use",
				ID:    toolBlock.ID,
				Name:  toolBlock.Name,
				Input: input,
			})
		}
	}

	if raw, err := json.Marshal(resp); err == nil {
		out.Raw = raw
	}
	return out, nil
}

// buildAnthropicMessages converts normalized messages into the Messages API
// format. Tool results become tool_result blocks inside user turns, which is
// where the API expects them.
func buildAnthropicMessages(messages []core.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			continue // handled separately via params.System
		case "user":
			if msg.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		case "assistant":
			var content []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				content = append(content, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input interface{}
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
						input = tc.Function.Arguments // fallback to string
					}
				}
				content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
			}
			if len(content) > 0 {
				out = append(out, anthropic.NewAssistantMessage(content...))
			}
		case "tool":
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false)))
		default:
			if msg.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}
	return out
}

// extractSystemBlocks collects system message text blocks.
func extractSystemBlocks(messages []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range messages {
		if msg.Role == "system" && msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	return blocks
}

// buildAnthropicTools converts tool declarations to the Messages API format.
func buildAnthropicTools(tools []core.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, tdef := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if params := tdef.Function.Parameters; params != nil {
			if properties, exists := params["properties"]; exists {
				inputSchema.Properties = properties
			}
			switch required := params["required"].(type) {
			case []string:
				inputSchema.Required = required
			case []interface{}:
				var names []string
				for _, r := range required {
					if s, ok := r.(string); ok {
						names = append(names, s)
					}
				}
				inputSchema.Required = names
			}
		}

		out[i] = anthropic.ToolUnionParamOfTool(inputSchema, tdef.Function.Name)
	}
	return out
}

// Info returns metadata describing this provider implementation.
func (p *Anthropic) Info() Info {
	return Info{
		Name:          string(p.opts.Model),
		Vendor:        "anthropic",
		SupportsTools: true,
	}
}
