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

package search

import (
	"iter"

	"github.com/poiesic/docflow/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(docIDs []string)
	AfterQueryEntityExtraction(entities []*core.Entity)
	FoundRelatedDocuments(tuple string, docIDs []string)
	AfterEntityRelatedSearch(docIDs iter.Seq[string])
	AfterDocumentRetrieval(docs []*core.Document)
	SemanticAndEntityHit(doc *core.Document)
	SemanticHit(doc *core.Document)
	EntityHit(doc *core.Document)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterSemanticSearch(_ []string)              {}
func (n *noopMonitor) AfterQueryEntityExtraction(_ []*core.Entity) {}
func (n *noopMonitor) FoundRelatedDocuments(_ string, _ []string)  {}
func (n *noopMonitor) AfterEntityRelatedSearch(_ iter.Seq[string]) {}
func (n *noopMonitor) AfterDocumentRetrieval(_ []*core.Document)   {}
func (n *noopMonitor) SemanticAndEntityHit(_ *core.Document)       {}
func (n *noopMonitor) SemanticHit(_ *core.Document)                {}
func (n *noopMonitor) EntityHit(_ *core.Document)                  {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)               {}
