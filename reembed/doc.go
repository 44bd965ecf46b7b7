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

// Package reembed recomputes the embeddings of stored documents, typically
// after switching to a new embedding model.
//
// Documents are read in pages of IDs, embedded in batches with retry and
// exponential backoff, normalized for cosine similarity search, and written
// back without touching the rest of the document.
package reembed
