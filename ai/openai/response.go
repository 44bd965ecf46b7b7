// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"strings"
	"unicode/utf8"
)

// stripCodeFences removes a surrounding markdown code block.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// repairJSON fixes the two defects small models produce most: keys whose
// opening quote is missing (`, type":`) and a trailing comma before a
// closing bracket. Text inside string literals is left alone.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString := false
	escaped := false
	expectKey := false
	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch {
		case ch == '"':
			inString = true
			expectKey = false
			b.WriteByte(ch)
		case ch == '{' || ch == ',':
			expectKey = true
			b.WriteByte(ch)
		case ch == '}' || ch == ']':
			trimTrailingComma(&b)
			expectKey = false
			b.WriteByte(ch)
		case expectKey && isLetter(ch):
			end := i
			for end < len(s) && (isLetter(s[end]) || s[end] == '_') {
				end++
			}
			if end+1 < len(s) && s[end] == '"' && s[end+1] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:end])
				b.WriteByte('"')
				i = end
				expectKey = false
				continue
			}
			expectKey = false
			b.WriteString(s[i:end])
			i = end - 1
		default:
			if ch != ' ' && ch != '\n' && ch != '\t' && ch != '\r' {
				expectKey = false
			}
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// trimTrailingComma drops a comma (and whitespace after it) at the end of b.
func trimTrailingComma(b *strings.Builder) {
	cur := b.String()
	trimmed := strings.TrimRight(cur, " \n\t\r")
	if strings.HasSuffix(trimmed, ",") {
		b.Reset()
		b.WriteString(trimmed[:len(trimmed)-1])
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// truncate cuts s to at most n bytes on a rune boundary. n <= 0 disables it.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// normalizeLabel lowercases a model label and joins words with underscores.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), "_")
}
