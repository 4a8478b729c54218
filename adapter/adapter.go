package adapter

import (
	"strings"

	"github.com/hupe1980/toolmesh/core"
	"github.com/hupe1980/toolmesh/extract"
	"github.com/hupe1980/toolmesh/logging"
)

// System prompt additions per family. Families with solid native tool
// calling need none; the additions exist to talk quirky families out of
// their failure modes.
const (
	googlePromptAdditions = `IMPORTANT: Use the NATIVE function calling mechanism.
- Do NOT write ` + "```tool_code``` or ```python```" + ` blocks to call functions
- INVOKE the tools directly through the function calling interface
- When you need to run a command, call execute_bash directly
- When you need to read a file, call read_file directly

NEVER do this:
` + "```tool_code\nprint(default_api.execute_bash(command=\"ls\"))\n```" + `

Instead, simply invoke the execute_bash tool with the arguments.`

	smallModelPromptAdditions = `When using tools, always use the function calling interface provided.
Format your tool calls correctly with proper JSON arguments.`
)

// Options configure an Adapter.
type Options struct {
	// Extractor handles fallback extraction from free text. Defaults to a
	// fresh extractor with the standard tool set.
	Extractor *extract.Extractor
	// Logger receives parse diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Adapter normalizes one model's requests and responses according to its
// family conventions. Stateless after construction; safe for concurrent use.
type Adapter struct {
	family     Family
	modelID    string
	capability Capability
	extractor  *extract.Extractor
	logger     logging.Logger
}

// New constructs an adapter for a model id, detecting the family and
// refining capabilities for the concrete model. Most callers should go
// through a Registry instead to get caching.
func New(modelID string, optFns ...func(o *Options)) *Adapter {
	opts := Options{
		Extractor: extract.NewExtractor(),
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	family := Detect(modelID)
	return &Adapter{
		family:     family,
		modelID:    modelID,
		capability: capabilityFor(family, modelID),
		extractor:  opts.Extractor,
		logger:     opts.Logger,
	}
}

// Family returns the detected family variant.
func (a *Adapter) Family() Family { return a.family }

// ModelID returns the model identifier this adapter is bound to.
func (a *Adapter) ModelID() string { return a.modelID }

// Capability returns the refined capability flags for this model.
func (a *Adapter) Capability() Capability { return a.capability }

// SupportLevel returns how reliably this model drives tool calling.
func (a *Adapter) SupportLevel() SupportLevel { return a.capability.SupportLevel }

// AugmentSystemPrompt appends family-specific tool-use instructions to a
// base system prompt. Families with dependable native tool calling return
// the prompt unchanged.
func (a *Adapter) AugmentSystemPrompt(base string) string {
	additions := a.promptAdditions()
	if additions == "" {
		return base
	}
	if base == "" {
		return additions
	}
	return base + "\n\n" + additions
}

func (a *Adapter) promptAdditions() string {
	switch a.family {
	case FamilyGoogle:
		return googlePromptAdditions
	case FamilyMeta:
		// Smaller Llama variants need explicit formatting guidance.
		if strings.Contains(strings.ToLower(a.modelID), "8b") {
			return smallModelPromptAdditions
		}
		return ""
	case FamilyGeneric:
		return smallModelPromptAdditions
	default:
		return ""
	}
}

// FormatRequest shapes a request for this family: system messages are
// augmented with family instructions, everything else passes through. The
// input request is not mutated.
func (a *Adapter) FormatRequest(req *core.Request) *core.Request {
	shaped := &core.Request{
		Model:    a.modelID,
		Messages: make([]core.Message, len(req.Messages)),
		Tools:    req.Tools,
	}
	for i, msg := range req.Messages {
		if msg.Role == "system" {
			msg.Content = a.AugmentSystemPrompt(msg.Content)
		}
		shaped.Messages[i] = msg
	}
	return shaped
}

// ParseResponse normalizes a vendor response: extract plain content, decode
// native tool calls, and run fallback extraction only when native decoding
// found nothing and the content is non-empty, stripping matched spans from
// the content. Per-call decode failures degrade to empty argument
// maps; the only returned error is *extract.HallucinationError.
func (a *Adapter) ParseResponse(resp *core.Response) (*core.ParsedResponse, error) {
	content := a.extractContent(resp)
	calls := a.decodeNative(resp)

	if len(calls) == 0 && content != "" {
		fallback, err := a.extractFallback(content)
		if err != nil {
			return nil, err
		}
		if len(fallback) > 0 {
			a.logger.Debug("adapter.parse.fallback",
				"family", a.family.String(), "model", a.modelID, "calls", len(fallback))
			calls = fallback
			content = a.extractor.CleanContent(content)
		}
	}

	return &core.ParsedResponse{
		Content:      content,
		ToolCalls:    calls,
		FinishReason: a.finishReason(resp, len(calls) > 0),
		Raw:          resp.Raw,
	}, nil
}

// extractFallback runs the hallucination guard first, then the family's
// fallback strategies.
func (a *Adapter) extractFallback(content string) ([]core.ToolCall, error) {
	if err := a.extractor.GuardHallucination(content); err != nil {
		return nil, err
	}

	switch a.family {
	case FamilyOpenAI:
		// Native calling is dependable; no textual fallback.
		return nil, nil
	case FamilyGoogle:
		// Gemini's signature failure mode is tool_code blocks.
		return a.extractor.ExtractToolCode(content), nil
	case FamilyGeneric:
		return a.extractor.Extract(content)
	default:
		// Remaining families occasionally emit pseudo-XML when confused.
		return a.extractor.ExtractFunctionTags(content), nil
	}
}

// extractContent pulls the plain text out of whichever envelope shape the
// response used.
func (a *Adapter) extractContent(resp *core.Response) string {
	if resp == nil {
		return ""
	}
	if len(resp.Choices) > 0 {
		return strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if len(resp.Blocks) > 0 {
		var b strings.Builder
		for _, block := range resp.Blocks {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		return strings.TrimSpace(b.String())
	}
	if len(resp.Candidates) > 0 {
		var b strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			b.WriteString(part.Text)
		}
		return strings.TrimSpace(b.String())
	}
	return ""
}

// finishReason normalizes the vendor finish string, forcing tool_calls when
// calls were recovered from text so the surrounding loop re-invokes the
// model after execution.
func (a *Adapter) finishReason(resp *core.Response, hasCalls bool) core.FinishReason {
	raw := ""
	if resp != nil {
		if len(resp.Choices) > 0 {
			raw = resp.Choices[0].FinishReason
		} else if resp.StopReason != "" {
			raw = resp.StopReason
		}
	}
	reason := core.NormalizeFinishReason(raw)
	if hasCalls && reason == core.FinishStop {
		reason = core.FinishToolCalls
	}
	return reason
}
