package unescape

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	var testCases = []struct {
		description string
		input       string
		expect      string
	}{
		{description: "plain", input: "hello", expect: "hello"},
		{description: "quote escapes", input: `it\u0027s \u0060code\u0060 \u0022q\u0022`, expect: "it's `code` \"q\""},
		{description: "angle brackets", input: `\u003Cb\u003E`, expect: "<b>"},
		{description: "lower case hex", input: `\u003cb\u003e`, expect: "<b>"},
		{description: "literal newline", input: `a\nb`, expect: "a\nb"},
		{description: "surrogate pair", input: `\uD83D\uDE00`, expect: "\U0001F600"},
		{description: "lone surrogate kept", input: `\uD83D!`, expect: `\uD83D!`},
		{description: "invalid hex kept", input: `\u12G4`, expect: `\u12G4`},
		{description: "short escape kept", input: `ab\u12`, expect: `ab\u12`},
		{description: "escaped backslash kept", input: `\\u0027`, expect: `\\u0027`},
		{description: "backslash escape kept", input: `\u005Cu0027`, expect: `\u005Cu0027`},
		{description: "trailing backslash", input: `abc\`, expect: `abc\`},
		{description: "other escape kept", input: `a\tb`, expect: `a\tb`},
	}
	for _, testCase := range testCases {
		actual := Decode(testCase.input)
		assert.Equal(t, testCase.expect, actual, testCase.description)
		assert.Equal(t, actual, Decode(actual), testCase.description+" idempotent")
	}
}

func TestDecodeContent(t *testing.T) {
	var testCases = []struct {
		description string
		input       string
		expect      string
	}{
		{
			description: "text decoded",
			input:       `{"content":[{"type":"text","text":"it\\u0027s \\u003Cok\\u003E"}],"isError":false}`,
			expect:      `{"content":[{"type":"text","text":"it's <ok>"}],"isError":false}`,
		},
		{
			description: "non text items untouched",
			input:       `{"content":[{"type":"image","data":"AAA"},{"type":"text","text":"a\\nb"}]}`,
			expect:      `{"content":[{"type":"image","data":"AAA"},{"type":"text","text":"a\nb"}]}`,
		},
		{
			description: "no content",
			input:       `{"tools":[]}`,
			expect:      `{"tools":[]}`,
		},
		{
			description: "not an object",
			input:       `[1,2]`,
			expect:      `[1,2]`,
		},
		{
			description: "null",
			input:       `null`,
			expect:      `null`,
		},
	}
	for _, testCase := range testCases {
		actual, err := DecodeContent(json.RawMessage(testCase.input))
		require.NoError(t, err, testCase.description)
		assert.JSONEq(t, testCase.expect, string(actual), testCase.description)
	}
}

func TestDecodeContent_NoHTMLEscaping(t *testing.T) {
	actual, err := DecodeContent(json.RawMessage(`{"content":[{"type":"text","text":"\\u003Cb\\u003E \\u0026"}]}`))
	require.NoError(t, err)
	assert.Contains(t, string(actual), `"<b> &"`)
}

func TestDecodeContent_KeepsLayout(t *testing.T) {
	input := `{"isError":false,"content":[{"text":"caf\\u00e9","type":"text","annotations":{"z":1,"a":2}},{"type":"text","text":"plain"}],"_meta":{"b":1,"a":2}}`
	expect := `{"isError":false,"content":[{"text":"café","type":"text","annotations":{"z":1,"a":2}},{"type":"text","text":"plain"}],"_meta":{"b":1,"a":2}}`
	actual, err := DecodeContent(json.RawMessage(input))
	require.NoError(t, err)
	assert.Equal(t, expect, string(actual))

	spaced := "{ \"content\" : [ { \"type\":\"text\", \"text\" : \"a\\nb\" } ] }"
	actual, err = DecodeContent(json.RawMessage(spaced))
	require.NoError(t, err)
	assert.Equal(t, "{ \"content\" : [ { \"type\":\"text\", \"text\" : \"a\\nb\" } ] }", string(actual))
}
