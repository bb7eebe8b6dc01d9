// Package unescape decodes escaped code points that some MCP backends leave in tool output text.
package unescape

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Decode replaces \uXXXX escapes (surrogate pairs included) with the code points
// they name and a literal \n with a newline. An escaped backslash pair is copied
// verbatim, as is any escape that would decode to a backslash, so decoding never
// introduces a new escape: Decode(Decode(s)) == Decode(s).
func Decode(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	for {
		next := decodeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func decodeOnce(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 >= len(s) {
			builder.WriteByte(s[i])
			i++
			continue
		}
		switch s[i+1] {
		case '\\':
			builder.WriteString(`\\`)
			i += 2
		case 'n':
			builder.WriteByte('\n')
			i += 2
		case 'u':
			r, size := codePoint(s[i:])
			if size == 0 {
				builder.WriteByte(s[i])
				i++
				continue
			}
			builder.WriteRune(r)
			i += size
		default:
			builder.WriteByte(s[i])
			i++
		}
	}
	return builder.String()
}

// codePoint decodes the escape at the start of s, returning the number of bytes
// consumed or 0 when the escape must stay verbatim.
func codePoint(s string) (rune, int) {
	first, ok := hex4(s)
	if !ok {
		return 0, 0
	}
	r := rune(first)
	switch {
	case utf16.IsSurrogate(r):
		second, ok := hex4(s[6:])
		if !ok {
			return 0, 0
		}
		pair := utf16.DecodeRune(r, rune(second))
		if pair == utf8.RuneError {
			return 0, 0
		}
		return pair, 12
	case r == '\\':
		return 0, 0
	}
	return r, 6
}

func hex4(s string) (uint64, bool) {
	if len(s) < 6 || s[0] != '\\' || s[1] != 'u' {
		return 0, false
	}
	value, err := strconv.ParseUint(s[2:6], 16, 32)
	return value, err == nil
}

// DecodeContent applies Decode to every result.content[].text string of a tool
// result. Only the text values are rewritten in place; every other byte of the
// result, member order included, is kept. Results without such text are
// returned unchanged.
func DecodeContent(result json.RawMessage) (json.RawMessage, error) {
	fields, ok := members(result)
	if !ok {
		return result, nil
	}
	content, ok := fields["content"]
	if !ok {
		return result, nil
	}
	items, ok := elements(result[content.start:content.end])
	if !ok {
		return result, nil
	}
	var edits []edit
	for _, item := range items {
		offset := content.start + item.start
		entry, ok := members(result[offset : content.start+item.end])
		if !ok {
			continue
		}
		text, ok := entry["text"]
		if !ok {
			continue
		}
		text = span{start: offset + text.start, end: offset + text.end}
		var value string
		if json.Unmarshal(result[text.start:text.end], &value) != nil {
			continue
		}
		decoded := Decode(value)
		if decoded == value {
			continue
		}
		replacement, err := marshal(decoded)
		if err != nil {
			return nil, err
		}
		edits = append(edits, edit{span: text, value: replacement})
	}
	if len(edits) == 0 {
		return result, nil
	}
	ret := make(json.RawMessage, 0, len(result))
	last := 0
	for _, anEdit := range edits {
		ret = append(ret, result[last:anEdit.start]...)
		ret = append(ret, anEdit.value...)
		last = anEdit.end
	}
	return append(ret, result[last:]...), nil
}

// span locates a JSON value inside a document.
type span struct {
	start, end int
}

type edit struct {
	span
	value []byte
}

// members returns the value spans of an object's members; a repeated key keeps its last value.
func members(data []byte) (map[string]span, bool) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	if token, err := decoder.Token(); err != nil || token != json.Delim('{') {
		return nil, false
	}
	ret := make(map[string]span)
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, false
		}
		key, _ := token.(string)
		var raw json.RawMessage
		if err = decoder.Decode(&raw); err != nil {
			return nil, false
		}
		end := int(decoder.InputOffset())
		ret[key] = span{start: end - len(raw), end: end}
	}
	return ret, true
}

// elements returns the spans of an array's elements.
func elements(data []byte) ([]span, bool) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	if token, err := decoder.Token(); err != nil || token != json.Delim('[') {
		return nil, false
	}
	var ret []span
	for decoder.More() {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			return nil, false
		}
		end := int(decoder.InputOffset())
		ret = append(ret, span{start: end - len(raw), end: end})
	}
	return ret, true
}

func marshal(value any) (json.RawMessage, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}
