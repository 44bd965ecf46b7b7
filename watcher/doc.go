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

// Package watcher discovers documents on disk and emits them in batches.
//
// Discovery has two sources: a one-shot recursive scan of the configured
// roots, and fsnotify events afterwards. Both funnel through
// HandleNewFile, which canonicalizes the path, applies the extension
// allow-list, deduplicates, attaches routing metadata and buffers the
// file. A full buffer is flushed through the BatchFunc callback.
//
// fsnotify is not recursive, so the watcher adds every subdirectory
// itself and subscribes to directories created while it runs.
package watcher
