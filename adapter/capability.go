package adapter

import "strings"

// SupportLevel grades how reliably a family/model combination drives tools.
type SupportLevel string

const (
	// SupportOptimized marks first-class, battle-tested tool calling.
	SupportOptimized SupportLevel = "optimized"
	// SupportCompatible marks working but occasionally quirky tool calling.
	SupportCompatible SupportLevel = "compatible"
	// SupportExperimental marks untested models handled generically.
	SupportExperimental SupportLevel = "experimental"
)

// Capability describes what a family supports and how well, refined per
// concrete model at adapter construction.
type Capability struct {
	Family             Family       `json:"family"`
	SupportLevel       SupportLevel `json:"support_level"`
	Tools              bool         `json:"supports_tools"`
	ParallelTools      bool         `json:"supports_parallel_tools"`
	Streaming          bool         `json:"supports_streaming"`
	NativeToolMessages bool         `json:"supports_native_tool_messages"`
	Patterns           []string     `json:"patterns,omitempty"`
}

// capabilityFor builds the capability for a family, then refines it with
// per-model quirks (reasoning models without streaming, Llama size tiers).
func capabilityFor(family Family, modelID string) Capability {
	c := Capability{
		Family:             family,
		SupportLevel:       SupportCompatible,
		Tools:              true,
		ParallelTools:      true,
		Streaming:          true,
		NativeToolMessages: true,
		Patterns:           patternsFor(family),
	}

	lower := strings.ToLower(modelID)

	switch family {
	case FamilyOpenAI:
		c.SupportLevel = SupportOptimized
		// o-series reasoning models restrict streaming.
		if strings.Contains(lower, "o1-") || strings.Contains(lower, "o3-") {
			c.Streaming = false
			c.SupportLevel = SupportCompatible
		}
	case FamilyAnthropic:
		c.SupportLevel = SupportOptimized
	case FamilyMeta:
		switch {
		case strings.Contains(lower, "405b"), strings.Contains(lower, "70b"):
			c.SupportLevel = SupportOptimized
		}
	case FamilyGeneric:
		c.SupportLevel = SupportExperimental
		// Unknown models get the conservative text path for tool results.
		c.NativeToolMessages = false
	}

	return c
}
