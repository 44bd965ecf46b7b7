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

// Package storage provides the storage abstraction layer for docflow.
//
// Repository interfaces decouple the ingestion sink, search and reembedding
// from the storage engine. The badger sub-package is the only implementation.
//
// # Architecture
//
//   - DocumentRepository: ingested documents, keyed by a deterministic ID
//     derived from the source path, with a path index, an entity index and
//     brute-force vector similarity search
//   - EntityRepository: content-addressed entities and relationships
//   - ResultRepository: the append-only log of pipeline results
//
// Records are serialized with CBOR (see serialization.go).
//
// # Usage
//
//	repos, err := badger.OpenRepositories("/var/lib/docflow", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use; pipeline
// workers write documents, entities and results in parallel.
package storage
