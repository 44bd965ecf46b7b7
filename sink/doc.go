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

// Package sink persists pipeline output.
//
// Sink turns a document's text, routing metadata and extracted entities into
// durable records: entities are resolved to content-addressed IDs, the
// relationships between them are stored, and the document is upserted by its
// source path with an optional embedding. Re-ingesting a path overwrites the
// document and increments its revision.
//
// ResultRecorder appends every pipeline outcome to the result log so runs can
// be inspected after the fact.
package sink
