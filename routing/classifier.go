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

package routing

import (
	"path/filepath"
	"strings"

	"github.com/poiesic/docflow/core"
)

// minPrefixLen is the shortest keyword allowed to match as a bare prefix.
// Shorter keywords ("it", "gas") only match whole words.
const minPrefixLen = 4

// PathClassifier derives routing metadata from a file path.
// It is safe for concurrent use; it holds no mutable state after construction.
type PathClassifier struct {
	sectors    []Sector
	extensions map[string]struct{}
}

// Option configures a PathClassifier.
type Option func(*PathClassifier)

// WithVocabulary replaces the default sector vocabulary.
func WithVocabulary(sectors []Sector) Option {
	return func(c *PathClassifier) {
		if len(sectors) > 0 {
			c.sectors = sectors
		}
	}
}

// WithExtensions sets the allow-listed file extensions.
// Segments ending in one of them are treated as files, never as directories.
func WithExtensions(exts ...string) Option {
	return func(c *PathClassifier) {
		c.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			c.extensions[NormalizeExtension(ext)] = struct{}{}
		}
	}
}

// NewPathClassifier creates a classifier with the default vocabulary.
func NewPathClassifier(opts ...Option) *PathClassifier {
	c := &PathClassifier{
		sectors:    DefaultSectors,
		extensions: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify walks the path segments left to right. The first directory
// segment matching the vocabulary sets Sector. The following segment is
// Subsector if it is a directory, and the one after that is Customer
// under the same rule. Every directory segment is a candidate, so callers
// pass paths relative to the directory they were discovered under.
func (c *PathClassifier) Classify(path string) core.RoutingMetadata {
	var meta core.RoutingMetadata

	segments := splitPath(path)
	for i, seg := range segments {
		if c.isFile(segments, i) {
			break
		}
		sector, ok := c.match(seg)
		if !ok {
			continue
		}
		meta.Sector = sector

		if i+1 < len(segments) && !c.isFile(segments, i+1) {
			meta.Subsector = normalizeSegment(segments[i+1])
			if i+2 < len(segments) && !c.isFile(segments, i+2) {
				meta.Customer = segments[i+2]
			}
		}
		break
	}
	return meta
}

// Sectors returns the vocabulary in match order.
func (c *PathClassifier) Sectors() []Sector {
	return c.sectors
}

// IsSector reports whether name is a sector of the vocabulary.
func (c *PathClassifier) IsSector(name string) bool {
	name = normalizeSegment(name)
	for _, s := range c.sectors {
		if s.Name == name {
			return true
		}
	}
	return false
}

// MatchSector maps a free-form label such as "Power Grid" onto a sector
// name using the same keyword rules as path segments.
func (c *PathClassifier) MatchSector(label string) (string, bool) {
	return c.match(label)
}

func (c *PathClassifier) match(segment string) (string, bool) {
	norm := normalizeSegment(segment)
	if norm == "" {
		return "", false
	}
	for _, s := range c.sectors {
		if keywordMatches(norm, s.Name) {
			return s.Name, true
		}
		for _, kw := range s.Keywords {
			if keywordMatches(norm, kw) {
				return s.Name, true
			}
		}
	}
	return "", false
}

// isFile treats the final segment and any allow-listed extension as a file.
func (c *PathClassifier) isFile(segments []string, i int) bool {
	if i == len(segments)-1 {
		return true
	}
	_, ok := c.extensions[NormalizeExtension(filepath.Ext(segments[i]))]
	return ok
}

func keywordMatches(segment, keyword string) bool {
	if segment == keyword {
		return true
	}
	if strings.HasPrefix(segment, keyword+"_") {
		return true
	}
	return len(keyword) >= minPrefixLen && strings.HasPrefix(segment, keyword)
}

func normalizeSegment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

func splitPath(path string) []string {
	path = filepath.ToSlash(filepath.Clean(path))
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			segments = append(segments, p)
		}
	}
	return segments
}

// NormalizeExtension lower-cases an extension and ensures a leading dot.
// An empty extension stays empty.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
