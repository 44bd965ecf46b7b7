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

// Package ingestion drives discovered files through the document pipeline.
//
// An Orchestrator owns a watcher, a bounded work queue and a pool of
// workers. Each worker takes one item at a time and runs it through four
// stages:
//   - convert the file to text
//   - classify the text, refining the path-derived routing
//   - extract entities and relationships
//   - hand everything to a Sink
//
// Every item ends in exactly one terminal status and is recorded in the
// orchestrator's Snapshot. Stage failures never escape the worker loop;
// only lifecycle problems (missing collaborators, bad configuration,
// subscription failures) are returned from Start.
package ingestion
