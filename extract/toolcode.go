package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/toolmesh/core"
)

// Fenced block patterns. tool_code blocks are always candidates; python
// blocks only when they reference the call convention or a known tool.
var (
	toolCodeBlockPattern = regexp.MustCompile("(?is)```tool_code[ \\t]*\\n(.*?)```")
	pythonBlockPattern   = regexp.MustCompile("(?is)```python[ \\t]*\\n(.*?)```")

	// toolCodeCleanPattern removes blocks that carried tool invocations.
	toolCodeCleanPattern = regexp.MustCompile(
		"(?is)```(?:tool_code|python)[ \\t]*\\n(?:.*?default_api\\.|.*?(?:read_file|write_file|edit_file|execute_bash|web_search)\\s*\\().*?```")

	// toolOutputsCleanPattern removes fabricated tool output blocks.
	toolOutputsCleanPattern = regexp.MustCompile("(?is)```tool_outputs?[ \\t]*\\n.*?```")
)

// Call shapes recognized inside a block, tried in order:
//
//	print(default_api.NAME(PARAMS))
//	default_api.NAME(PARAMS)
//	NAME(PARAMS) for the known tool set
var toolCodeCallPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)print\s*\(\s*default_api\.(\w+)\s*\(\s*(.*?)\s*\)\s*\)`),
	regexp.MustCompile(`(?s)default_api\.(\w+)\s*\(\s*(.*?)\s*\)`),
	regexp.MustCompile(`(?s)\b(read_file|write_file|edit_file|execute_bash|web_search)\s*\(\s*(.*?)\s*\)`),
}

// shellIndicators is the allow-list for treating an unrecognized tool_code
// block as a direct shell command.
var shellIndicators = map[string]struct{}{
	"ls": {}, "cd": {}, "cat": {}, "grep": {}, "find": {}, "mkdir": {}, "rm": {},
	"cp": {}, "mv": {}, "pwd": {}, "echo": {}, "npm": {}, "pip": {}, "python": {},
	"node": {}, "git": {}, "docker": {}, "curl": {}, "wget": {}, "chmod": {},
	"chown": {}, "tar": {}, "zip": {}, "unzip": {},
}

// ExtractToolCode parses fenced tool_code (and qualifying python) blocks
// into tool calls. A block with no recognizable call whose first token is a
// known shell command, or that contains a path separator, synthesizes one
// call to the configured shell tool with the raw block text as its sole
// argument.
func (e *Extractor) ExtractToolCode(content string) []core.ToolCall {
	if content == "" {
		return nil
	}

	type fenced struct {
		body     string
		toolCode bool
	}
	var blocks []fenced
	for _, m := range toolCodeBlockPattern.FindAllStringSubmatch(content, -1) {
		blocks = append(blocks, fenced{body: m[1], toolCode: true})
	}
	for _, m := range pythonBlockPattern.FindAllStringSubmatch(content, -1) {
		blocks = append(blocks, fenced{body: m[1], toolCode: false})
	}

	var calls []core.ToolCall
	seen := map[string]struct{}{}

	for _, block := range blocks {
		body := strings.TrimSpace(block.body)
		if !block.toolCode && !e.referencesTools(body) {
			continue
		}

		found := false
		for _, pattern := range toolCodeCallPatterns {
			for _, m := range pattern.FindAllStringSubmatch(body, -1) {
				name, paramsText := m[1], m[2]
				found = true

				key := name + ":" + paramsText
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				args, ok := ParseParams(paramsText)
				if !ok {
					continue
				}
				calls = append(calls, core.ToolCall{
					ID:        fmt.Sprintf("toolcode_%d", len(calls)),
					Name:      name,
					Arguments: args,
				})
			}
		}

		if block.toolCode && !found && body != "" {
			if call, ok := e.synthesizeShellCall(body, seen); ok {
				call.ID = fmt.Sprintf("toolcode_%d", len(calls))
				calls = append(calls, call)
			}
		}
	}
	return calls
}

// referencesTools reports whether a python block looks like it carries tool
// invocations and is worth scanning at all.
func (e *Extractor) referencesTools(body string) bool {
	if strings.Contains(body, "default_api.") {
		return true
	}
	for _, tool := range e.opts.KnownTools {
		if strings.Contains(body, tool) {
			return true
		}
	}
	return false
}

// synthesizeShellCall turns a bare command block into an execute-shell call.
func (e *Extractor) synthesizeShellCall(body string, seen map[string]struct{}) (core.ToolCall, bool) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return core.ToolCall{}, false
	}
	_, isShell := shellIndicators[fields[0]]
	if !isShell && !strings.Contains(body, "/") && !strings.HasPrefix(body, "./") {
		return core.ToolCall{}, false
	}

	key := e.opts.ShellTool + ":" + body
	if _, dup := seen[key]; dup {
		return core.ToolCall{}, false
	}
	seen[key] = struct{}{}

	return core.ToolCall{
		Name:      e.opts.ShellTool,
		Arguments: map[string]any{e.opts.ShellArg: body},
	}, true
}

// repairJSONObject decodes a JSON object, attempting two textual repairs on
// failure: single quotes replaced with double quotes, then bare object keys
// quoted. Gives up (false) when none of the three forms decode.
func repairJSONObject(text string) (map[string]any, bool) {
	var args map[string]any
	if err := json.Unmarshal([]byte(text), &args); err == nil {
		return args, true
	}

	fixed := strings.ReplaceAll(text, "'", `"`)
	if err := json.Unmarshal([]byte(fixed), &args); err == nil {
		return args, true
	}

	fixed = bareKeyPattern.ReplaceAllString(text, `"$1":`)
	if err := json.Unmarshal([]byte(fixed), &args); err == nil {
		return args, true
	}
	return nil, false
}

var bareKeyPattern = regexp.MustCompile(`(\w+):`)
