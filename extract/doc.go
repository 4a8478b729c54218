// Package extract recovers tool invocations that models emit as free-text
// pseudo-syntax instead of native tool calls. It implements a regex/heuristic
// cascade over two surface forms, pseudo-XML <function=...> tags and fenced
// tool_code blocks, plus a hallucination guard that intercepts fabricated
// tool output before any extraction runs, and a Python-literal mini-parser
// for call-syntax parameter text.
//
// Extraction is strictly best-effort: a span that cannot be decoded (even
// after JSON repair) is skipped, never fatal. The only error the package
// produces is *HallucinationError, which callers turn into a corrective
// model turn.
package extract
