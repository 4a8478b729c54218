package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- ParseParams Tests --------------------

func TestParseParams_Empty(t *testing.T) {
	args, ok := ParseParams("")
	require.True(t, ok)
	assert.Empty(t, args)

	args, ok = ParseParams("   \n\t ")
	require.True(t, ok)
	assert.Empty(t, args)
}

func TestParseParams_NoPairsSentinel(t *testing.T) {
	args, ok := ParseParams("just some words")
	assert.False(t, ok)
	assert.Nil(t, args)
}

func TestParseParams_QuotedStrings(t *testing.T) {
	args, ok := ParseParams(`file_path = "a.txt", mode = 'append'`)
	require.True(t, ok)
	assert.Equal(t, "a.txt", args["file_path"])
	assert.Equal(t, "append", args["mode"])
}

func TestParseParams_EscapeDecoding(t *testing.T) {
	args, ok := ParseParams(`text = "line1\nline2\t\"quoted\" back\\slash"`)
	require.True(t, ok)
	assert.Equal(t, "line1\nline2\t\"quoted\" back\\slash", args["text"])
}

func TestParseParams_ScalarTypes(t *testing.T) {
	args, ok := ParseParams(`n = 3, f = 1.5, yes = True, no = False, nothing = None`)
	require.True(t, ok)
	assert.Equal(t, 3, args["n"])
	assert.Equal(t, 1.5, args["f"])
	assert.Equal(t, true, args["yes"])
	assert.Equal(t, false, args["no"])

	val, present := args["nothing"]
	assert.True(t, present)
	assert.Nil(t, val)
}

func TestParseParams_BracketLiterals(t *testing.T) {
	args, ok := ParseParams(`items = [1, 2, 3], options = {"k": "v"}`)
	require.True(t, ok)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, args["items"])
	assert.Equal(t, map[string]any{"k": "v"}, args["options"])
}

func TestParseParams_TripleQuotedVerbatim(t *testing.T) {
	params := "content = \"\"\"line1\nline2 with \\n kept literal\"\"\", path = \"a.txt\""
	args, ok := ParseParams(params)
	require.True(t, ok)
	// Triple-quoted bodies keep their text verbatim, escapes included.
	assert.Equal(t, "line1\nline2 with \\n kept literal", args["content"])
	assert.Equal(t, "a.txt", args["path"])
}

func TestParseParams_TripleQuoteWinsDuplicate(t *testing.T) {
	params := `content = """the real body""", content = "shadowed"`
	args, ok := ParseParams(params)
	require.True(t, ok)
	assert.Equal(t, "the real body", args["content"])
}

func TestParseParams_SingleQuotedTriple(t *testing.T) {
	params := `content = '''python style''', flag = True`
	args, ok := ParseParams(params)
	require.True(t, ok)
	assert.Equal(t, "python style", args["content"])
	assert.Equal(t, true, args["flag"])
}
