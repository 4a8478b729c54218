package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Python-literal parameter parsing for call syntax like:
//
//	file_path = "a.txt", content = """multi
//	line"""
//
// Triple-quoted assignments are extracted first with their inner text kept
// verbatim; they win over a same-named single-quoted duplicate. The
// remainder is scanned for name = value pairs.
var (
	tripleQuotePattern = regexp.MustCompile(`(?s)(\w+)\s*=\s*("""[\s\S]*?"""|'''[\s\S]*?''')`)
	singleParamPattern = regexp.MustCompile(
		`(?s)(\w+)\s*=\s*("(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|\d+(?:\.\d+)?|True|False|None|\{[^}]*\}|\[[^\]]*\])`)
)

// ParseParams converts raw text between call parentheses into an argument
// map. The second return distinguishes "no parseable pairs" (nil, false)
// from a legitimately empty parameter list ({}, true); callers must never
// conflate the two.
func ParseParams(paramsText string) (map[string]any, bool) {
	if strings.TrimSpace(paramsText) == "" {
		return map[string]any{}, true
	}

	result := map[string]any{}

	remainder := tripleQuotePattern.ReplaceAllStringFunc(paramsText, func(m string) string {
		sub := tripleQuotePattern.FindStringSubmatch(m)
		name, quoted := sub[1], sub[2]
		result[name] = quoted[3 : len(quoted)-3]
		return ""
	})

	for _, m := range singleParamPattern.FindAllStringSubmatch(remainder, -1) {
		name, value := m[1], m[2]
		if _, exists := result[name]; exists {
			continue // triple-quoted assignment wins
		}
		result[name] = parseValue(value)
	}

	if len(result) == 0 {
		return nil, false
	}
	return result, true
}

// parseValue decodes one matched value literal.
func parseValue(value string) any {
	switch {
	case len(value) >= 2 && (value[0] == '"' || value[0] == '\''):
		return decodeEscapes(value[1 : len(value)-1])
	case value == "True":
		return true
	case value == "False":
		return false
	case value == "None":
		return nil
	case strings.HasPrefix(value, "{") || strings.HasPrefix(value, "["):
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			return decoded
		}
		return value
	case strings.Contains(value, "."):
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		return value
	default:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return int(n)
		}
		return value
	}
}

// decodeEscapes resolves the backslash escapes Python string literals allow
// in call syntax: \n \t \" \' \\. Unrecognized sequences pass through with
// the backslash intact.
func decodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '"':
			b.WriteByte('"')
		case '\'':
			b.WriteByte('\'')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i+1])
		}
		i++
	}
	return b.String()
}
