package adapter

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/toolmesh/core"
)

// Native tool-call decoding. Each family reads the envelope shape its wire
// format uses; everything lands on the same normalized []core.ToolCall.
// Per-call decode failures degrade to an empty argument map, never an error.

// decodeNative extracts natively formatted tool calls for this family.
func (a *Adapter) decodeNative(resp *core.Response) []core.ToolCall {
	if resp == nil {
		return nil
	}
	switch a.family {
	case FamilyAnthropic:
		if calls := decodeBlocks(resp.Blocks); len(calls) > 0 {
			return calls
		}
		// Anthropic models served through an OpenAI-compatible gateway.
		return decodeChoiceCalls(resp, nil)
	case FamilyGoogle:
		// OpenAI-compatible gateways are tried before the native candidate
		// list; most Gemini traffic arrives through one.
		if calls := decodeChoiceCalls(resp, repairDoubleEscapes); len(calls) > 0 {
			return calls
		}
		return decodeCandidates(resp.Candidates)
	default:
		return decodeChoiceCalls(resp, nil)
	}
}

// decodeChoiceCalls handles the OpenAI-compatible choice list, tolerating the
// key variants vendors disagree on: "id" vs "call_id", arguments nested under
// "function" or flat as "arguments"/"args". An optional repair hook post-
// processes the decoded argument map.
func decodeChoiceCalls(resp *core.Response, repair func(map[string]any) map[string]any) []core.ToolCall {
	if len(resp.Choices) == 0 {
		return nil
	}

	var calls []core.ToolCall
	for _, raw := range resp.Choices[0].Message.ToolCalls {
		name := raw.Name
		args := raw.Arguments
		if len(args) == 0 {
			args = raw.Args
		}
		if raw.Func != nil {
			if raw.Func.Name != "" {
				name = raw.Func.Name
			}
			if len(raw.Func.Arguments) > 0 {
				args = raw.Func.Arguments
			}
		}
		if name == "" {
			continue
		}

		id := raw.ID
		if id == "" {
			id = raw.CallID
		}
		if id == "" {
			id = "call_" + uuid.NewString()
		}

		decoded := core.DecodeArguments(args)
		if repair != nil {
			decoded = repair(decoded)
		}
		calls = append(calls, core.ToolCall{ID: id, Name: name, Arguments: decoded})
	}
	return calls
}

// decodeBlocks extracts tool_use blocks from an Anthropic content list.
func decodeBlocks(blocks []core.Block) []core.ToolCall {
	var calls []core.ToolCall
	for _, block := range blocks {
		if block.Type != "tool_use" || block.Name == "" {
			continue
		}
		id := block.ID
		if id == "" {
			id = "toolu_" + uuid.NewString()
		}
		calls = append(calls, core.ToolCall{
			ID:        id,
			Name:      block.Name,
			Arguments: core.DecodeArguments(block.Input),
		})
	}
	return calls
}

// decodeCandidates extracts functionCall parts from a Google candidate list.
// Synthesized ids are positional; Gemini does not provide call ids.
func decodeCandidates(candidates []core.Candidate) []core.ToolCall {
	if len(candidates) == 0 {
		return nil
	}

	var calls []core.ToolCall
	for i, part := range candidates[0].Content.Parts {
		fc := part.Call()
		if fc == nil || fc.Name == "" {
			continue
		}
		calls = append(calls, core.ToolCall{
			ID:        fmt.Sprintf("gemini_%d", i),
			Name:      fc.Name,
			Arguments: repairDoubleEscapes(core.DecodeArguments(fc.Args)),
		})
	}
	return calls
}

// repairDoubleEscapes fixes Gemini's habit of double-escaping string argument
// values ("line1\\nline2" arriving where "line1\nline2" was meant). Only
// strings containing literal backslash escape sequences are rewritten; nested
// maps and slices are walked recursively.
func repairDoubleEscapes(args map[string]any) map[string]any {
	for k, v := range args {
		args[k] = repairValue(v)
	}
	return args
}

func repairValue(v any) any {
	switch tv := v.(type) {
	case string:
		if !strings.Contains(tv, `\n`) && !strings.Contains(tv, `\"`) && !strings.Contains(tv, `\t`) {
			return tv
		}
		r := strings.NewReplacer(`\n`, "\n", `\"`, `"`, `\t`, "\t")
		return r.Replace(tv)
	case map[string]any:
		return repairDoubleEscapes(tv)
	case []any:
		for i, item := range tv {
			tv[i] = repairValue(item)
		}
		return tv
	default:
		return v
	}
}
