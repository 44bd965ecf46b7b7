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

package convert

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"
)

// TextConverter passes plain-text formats through, fixing invalid UTF-8.
type TextConverter struct {
	extensions map[string]bool
}

// NewTextConverter handles markdown, plain text and text-based data formats.
func NewTextConverter() *TextConverter {
	return &TextConverter{
		extensions: map[string]bool{
			".txt": true, ".md": true, ".markdown": true, ".csv": true,
			".json": true, ".log": true, ".yaml": true, ".yml": true,
		},
	}
}

// Name returns the converter name
func (t *TextConverter) Name() string {
	return "text"
}

// Supports returns true for plain-text extensions
func (t *TextConverter) Supports(ext string) bool {
	return t.extensions[ext]
}

// Convert reads the file and strips a UTF-8 byte order mark.
func (t *TextConverter) Convert(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	return strings.TrimPrefix(text, "\uFEFF"), nil
}
