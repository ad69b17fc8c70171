package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"video_automation/pipeline"
)

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")
	jsonPayloadRe = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
)

// ExtractJSON recovers a structured payload from a model reply that may wrap
// it in explanatory prose or a fenced code block. Three parse layers are
// tried in order: strict JSON, a lenient pass that repairs trailing commas
// and raw control characters inside strings, and a literal-syntax pass that
// accepts single-quoted strings and True/False/None. The result is
// deterministic; failure is reported only after all three layers fail.
func ExtractJSON(raw string, v any) error {
	candidate := locatePayload(raw)

	lastErr := json.Unmarshal([]byte(candidate), v)
	if lastErr == nil {
		return nil
	}

	if err := json.Unmarshal([]byte(lenientClean(candidate)), v); err == nil {
		return nil
	}

	if err := json.Unmarshal([]byte(literalClean(candidate)), v); err == nil {
		return nil
	}

	return pipeline.WrapError(pipeline.KindMalformed,
		fmt.Errorf("could not parse structured payload after all parse layers: %w", lastErr))
}

// locatePayload narrows the reply down to the most likely JSON region:
// fenced block first, then the outermost object or array, then the whole
// trimmed reply.
func locatePayload(raw string) string {
	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := jsonPayloadRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// lenientClean escapes raw control characters inside string literals and
// drops trailing commas outside them, in a single state-machine pass.
func lenientClean(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				b.WriteByte(c)
				escaped = false
				continue
			}
			switch c {
			case '\\':
				b.WriteByte(c)
				escaped = true
			case '"':
				b.WriteByte(c)
				inString = false
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				b.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			b.WriteByte(c)
			inString = true
		case ',':
			// Drop the comma when the next non-space byte closes a
			// container.
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\r' || s[j] == '\t') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// literalClean rewrites Python-ish literal syntax into JSON: single-quoted
// strings become double-quoted, and bare True/False/None become
// true/false/null. Runs on top of the lenient repairs.
func literalClean(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	const (
		outside = iota
		inDouble
		inSingle
	)
	state := outside
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case inDouble:
			if escaped {
				b.WriteByte(c)
				escaped = false
			} else if c == '\\' {
				b.WriteByte(c)
				escaped = true
			} else {
				b.WriteByte(c)
				if c == '"' {
					state = outside
				}
			}
		case inSingle:
			if escaped {
				if c == '\'' {
					b.WriteByte(c) // \' becomes a plain quote
				} else {
					b.WriteByte('\\')
					b.WriteByte(c)
				}
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '\'' {
				b.WriteByte('"')
				state = outside
			} else if c == '"' {
				b.WriteString(`\"`)
			} else {
				b.WriteByte(c)
			}
		default:
			switch {
			case c == '"':
				b.WriteByte(c)
				state = inDouble
			case c == '\'':
				b.WriteByte('"')
				state = inSingle
			case matchWord(s, i, "True"):
				b.WriteString("true")
				i += len("True") - 1
			case matchWord(s, i, "False"):
				b.WriteString("false")
				i += len("False") - 1
			case matchWord(s, i, "None"):
				b.WriteString("null")
				i += len("None") - 1
			default:
				b.WriteByte(c)
			}
		}
	}
	return lenientClean(b.String())
}

func matchWord(s string, i int, word string) bool {
	if !strings.HasPrefix(s[i:], word) {
		return false
	}
	if i > 0 && isWordByte(s[i-1]) {
		return false
	}
	end := i + len(word)
	return end >= len(s) || !isWordByte(s[end])
}

func isWordByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
