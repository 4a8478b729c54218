package adapter

import "strings"

// Family identifies a vendor-specific grouping of models sharing a tool-call
// wire convention. The set is closed; FamilyGeneric matches no pattern and
// is the default for unrecognized models.
type Family int

const (
	// FamilyGeneric is the fallback for models matching no known pattern.
	FamilyGeneric Family = iota
	// FamilyOpenAI covers GPT and the o-series reasoning models.
	FamilyOpenAI
	// FamilyAnthropic covers Claude.
	FamilyAnthropic
	// FamilyGoogle covers Gemini, PaLM and Bard.
	FamilyGoogle
	// FamilyMeta covers Llama.
	FamilyMeta
	// FamilyQwen covers Alibaba Qwen.
	FamilyQwen
	// FamilyMistral covers Mistral, Mixtral, Codestral, Ministral, Pixtral.
	FamilyMistral
	// FamilyDeepSeek covers DeepSeek.
	FamilyDeepSeek
	// FamilyCohere covers Command / Command-R.
	FamilyCohere
)

// String returns the canonical family name.
func (f Family) String() string {
	switch f {
	case FamilyOpenAI:
		return "openai"
	case FamilyAnthropic:
		return "anthropic"
	case FamilyGoogle:
		return "google"
	case FamilyMeta:
		return "meta"
	case FamilyQwen:
		return "qwen"
	case FamilyMistral:
		return "mistral"
	case FamilyDeepSeek:
		return "deepseek"
	case FamilyCohere:
		return "cohere"
	default:
		return "generic"
	}
}

// familyEntry binds a family to its detection substrings.
type familyEntry struct {
	family   Family
	patterns []string
}

// familyTable is scanned in declaration order; the first family any of whose
// patterns substring-matches the lower-cased model id wins. Ties between
// families resolve by this order, not by pattern specificity.
var familyTable = []familyEntry{
	{FamilyOpenAI, []string{
		"gpt-4", "gpt-3.5", "gpt-4o", "gpt-4-turbo",
		"o1-", "o1o-", "o3-",
		"chatgpt", "openai/gpt",
	}},
	{FamilyAnthropic, []string{"claude", "anthropic/claude"}},
	{FamilyGoogle, []string{
		"gemini", "google/gemini", "palm", "bard",
		"gemini-1", "gemini-2", "gemini-3",
	}},
	{FamilyMeta, []string{
		"llama", "meta-llama", "meta/llama",
		"llama-2", "llama-3", "llama-4",
	}},
	{FamilyQwen, []string{"qwen", "qwen2", "qwen-2", "alibaba/qwen"}},
	{FamilyMistral, []string{
		"mistral", "mixtral", "mistralai", "codestral",
		"ministral", "pixtral",
	}},
	{FamilyDeepSeek, []string{"deepseek"}},
	{FamilyCohere, []string{"command", "cohere", "command-r"}},
}

// Detect maps a free-text model identifier to its family. Detection is
// total and deterministic: every input maps to exactly one family, with
// FamilyGeneric for no match.
func Detect(modelID string) Family {
	lower := strings.ToLower(modelID)
	for _, entry := range familyTable {
		for _, pattern := range entry.patterns {
			if strings.Contains(lower, pattern) {
				return entry.family
			}
		}
	}
	return FamilyGeneric
}

// Families lists every supported family including the generic fallback.
func Families() []Family {
	families := make([]Family, 0, len(familyTable)+1)
	for _, entry := range familyTable {
		families = append(families, entry.family)
	}
	return append(families, FamilyGeneric)
}

// patternsFor returns the detection substrings for a family (nil for
// FamilyGeneric, which matches nothing).
func patternsFor(f Family) []string {
	for _, entry := range familyTable {
		if entry.family == f {
			return entry.patterns
		}
	}
	return nil
}
