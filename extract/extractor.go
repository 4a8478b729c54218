package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/toolmesh/core"
)

// Pseudo-XML tool call variants observed in the wild. Order matters:
// first-match-wins per span, later patterns only add spans the earlier
// ones missed (dedup is by name + raw argument text).
//
//	<function=name {...}></function>   space before JSON
//	<function=name{...}></function>    no space
//	<function=name [{...}]></function> array-wrapped (with or without space)
//	<function=name[]{...}></function>  empty brackets before JSON
//	<function=name({...})></function>  parentheses wrapping JSON
var functionTagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<function=(\w+)\s+(\{[^>]+\})(?:>?\s*</function>|/>)`),
	regexp.MustCompile(`(?is)<function=(\w+)(\{[^>]+\})(?:>?\s*</function>|/>)`),
	regexp.MustCompile(`(?is)<function=(\w+)\s*\[(\{[^>]+\})\](?:>?\s*</function>|/>)`),
	regexp.MustCompile(`(?is)<function=(\w+)\[\](\{[^>]+\})(?:>?\s*</function>|/>)`),
	regexp.MustCompile(`(?is)<function=(\w+)\((\{[^)]+\})\)(?:>?\s*</function>|/>)`),
}

// functionTagCleanPattern matches every pseudo-XML variant at once for span
// removal during content cleanup.
var functionTagCleanPattern = regexp.MustCompile(
	`(?is)<function=\w+[\s\[\]\(]*\{[^>)]+\}[\s\]\)]*(?:>?\s*</function>|/>)`)

// Forbidden markers indicating the model fabricated tool output instead of
// requesting execution. Matched case-insensitively anywhere in the content.
var hallucinationMarkers = []string{
	"tool_outputs",
	"bash_output",
	"tool_result",
	"execution_result",
	"command_output",
	"shell_output",
	`"execute_bash_response"`,
	`"read_file_response"`,
	`"write_file_response"`,
}

// HallucinationError signals that the content impersonates genuine tool
// output. Extraction is aborted; the caller should feed Corrective() back
// into the conversation and request another model turn.
type HallucinationError struct {
	Marker string
}

func (e *HallucinationError) Error() string {
	return fmt.Sprintf("hallucinated tool output detected: forbidden marker %q", e.Marker)
}

// Corrective returns the instruction to append to the conversation so the
// model retries with a real tool invocation.
func (e *HallucinationError) Corrective() string {
	return fmt.Sprintf(
		"Invalid response format detected: never fabricate results inside %q blocks. "+
			"Invoke the provided tools to execute REAL commands instead.", e.Marker)
}

// Options configure an Extractor.
type Options struct {
	// KnownTools are tool names recognized as bare calls inside tool_code
	// blocks and as signals that a python block carries tool invocations.
	KnownTools []string
	// ShellTool is the tool a bare shell command block is synthesized into.
	ShellTool string
	// ShellArg is the argument name carrying the raw command text.
	ShellArg string
}

// Extractor locates tool invocations embedded in free text.
// Stateless after construction and safe for concurrent use.
type Extractor struct {
	opts Options
}

// NewExtractor builds an Extractor. Defaults match the five essential tools
// the conversation loop registers out of the box.
func NewExtractor(optFns ...func(o *Options)) *Extractor {
	opts := Options{
		KnownTools: []string{"read_file", "write_file", "edit_file", "execute_bash", "web_search"},
		ShellTool:  "execute_bash",
		ShellArg:   "command",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{opts: opts}
}

// GuardHallucination scans content for fabricated tool-output markers.
// Returns a *HallucinationError on the first match, nil otherwise.
func (e *Extractor) GuardHallucination(content string) error {
	if content == "" {
		return nil
	}
	lower := strings.ToLower(content)
	for _, marker := range hallucinationMarkers {
		if strings.Contains(lower, marker) {
			return &HallucinationError{Marker: marker}
		}
	}
	return nil
}

// ExtractFunctionTags parses pseudo-XML tool calls from content. Spans that
// fail JSON decoding are run through two repairs (single-quote replacement,
// bare-key quoting) before being skipped.
func (e *Extractor) ExtractFunctionTags(content string) []core.ToolCall {
	if content == "" {
		return nil
	}

	var calls []core.ToolCall
	seen := map[string]struct{}{}

	for _, pattern := range functionTagPatterns {
		for _, m := range pattern.FindAllStringSubmatch(content, -1) {
			name, argsText := m[1], m[2]

			key := name + ":" + argsText
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			args, ok := repairJSONObject(argsText)
			if !ok {
				continue
			}
			calls = append(calls, core.ToolCall{
				ID:        fmt.Sprintf("fallback_%d", len(calls)),
				Name:      strings.TrimSpace(name),
				Arguments: args,
			})
		}
	}
	return calls
}

// Extract runs the full cascade: hallucination guard, pseudo-XML tags, then
// tool_code blocks. Duplicate spans across strategies are suppressed by
// (name, raw-argument-text). The only possible error is *HallucinationError.
func (e *Extractor) Extract(content string) ([]core.ToolCall, error) {
	if err := e.GuardHallucination(content); err != nil {
		return nil, err
	}
	calls := e.ExtractFunctionTags(content)
	calls = append(calls, e.ExtractToolCode(content)...)
	return calls, nil
}

// CleanContent removes every matched tool-call span (pseudo-XML tags,
// tool_code/python blocks carrying tool calls, fake tool_outputs blocks)
// and trims surrounding whitespace. Applying it twice equals applying it once.
func (e *Extractor) CleanContent(content string) string {
	cleaned := functionTagCleanPattern.ReplaceAllString(content, "")
	cleaned = toolCodeCleanPattern.ReplaceAllString(cleaned, "")
	cleaned = toolOutputsCleanPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
