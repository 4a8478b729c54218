package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/toolmesh/core"
)

// OpenAIOptions configure the OpenAI provider.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type OpenAIOptions struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// OpenAI wraps the OpenAI Chat Completions API behind the Provider interface.
// It also serves OpenAI-compatible gateways, which is how most non-OpenAI
// families (Meta, Qwen, Mistral, DeepSeek) arrive in practice.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAI creates a provider using the official client with ambient
// credentials.
func NewOpenAI(optFns ...func(o *OpenAIOptions)) *OpenAI {
	client := openai.NewClient()
	return NewOpenAIFromClient(&client, optFns...)
}

// NewOpenAIFromClient creates a provider from an existing client.
func NewOpenAIFromClient(client *openai.Client, optFns ...func(o *OpenAIOptions)) *OpenAI {
	opts := OpenAIOptions{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &OpenAI{client: client, opts: opts}
}

// Complete sends one chat completion and decodes the reply into the
// normalized envelope.
func (p *OpenAI) Complete(ctx context.Context, req *core.Request) (*core.Response, error) {
	params := p.buildParams(req)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api returned no choices")
	}

	out := &core.Response{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: make([]core.Choice, 0, len(resp.Choices)),
	}
	for _, choice := range resp.Choices {
		msg := core.ChoiceMessage{
			Role:    "assistant",
			Content: choice.Message.Content,
		}
		for _, tc := range choice.Message.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, core.RawToolCall{
				ID:   tc.ID,
				Type: "function",
				Func: &core.RawFunction{
					Name:      tc.Function.Name,
					Arguments: json.RawMessage(tc.Function.Arguments),
				},
			})
		}
		out.Choices = append(out.Choices, core.Choice{
			Message:      msg,
			FinishReason: string(choice.FinishReason),
		})
	}

	if raw, err := json.Marshal(resp); err == nil {
		out.Raw = raw
	}
	return out, nil
}

// buildParams assembles the request parameters including tool definitions.
func (p *OpenAI) buildParams(req *core.Request) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = p.opts.Model
	}

	params := openai.ChatCompletionNewParams{
		Messages:            buildOpenAIMessages(req.Messages),
		Model:               model,
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// buildOpenAIMessages converts normalized messages into SDK message unions.
// Tool messages must follow the assistant turn that issued the call, which
// the conversation store already guarantees by insertion order.
func buildOpenAIMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			out = append(out, openai.SystemMessage(msg.Content))
		case "user":
			out = append(out, openai.UserMessage(msg.Content))
		case "assistant":
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case "tool":
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			if msg.Content != "" {
				out = append(out, openai.UserMessage(msg.Content))
			}
		}
	}
	return out
}

// Info returns metadata describing this provider implementation.
func (p *OpenAI) Info() Info {
	return Info{
		Name:          p.opts.Model,
		Vendor:        "openai",
		SupportsTools: true,
	}
}
