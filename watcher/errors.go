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

package watcher

import "errors"

var (
	// ErrNoRoots is returned when a watcher is created without directories.
	ErrNoRoots = errors.New("at least one watch directory required")

	// ErrNoExtensions is returned when a watcher is created without an extension allow-list.
	ErrNoExtensions = errors.New("at least one supported extension required")

	// ErrBatchFuncRequired is returned when no batch callback is provided.
	ErrBatchFuncRequired = errors.New("batch callback required")

	// ErrInvalidBatchSize is returned for a batch size below 1.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrSubscribe wraps failures to register filesystem notifications.
	ErrSubscribe = errors.New("filesystem subscription failed")

	// ErrAlreadyWatching is returned when Watch is called twice.
	ErrAlreadyWatching = errors.New("watcher already running")

	// ErrStopped is returned when subscribing after Stop.
	ErrStopped = errors.New("watcher stopped")

	// ErrFlushFailed wraps errors returned by the batch callback.
	ErrFlushFailed = errors.New("batch flush failed")

	// ErrNotRegularFile is returned for paths that are not regular files.
	ErrNotRegularFile = errors.New("not a regular file")
)
