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

package queue

import "errors"

var (
	// ErrClosed is returned by Put after the queue has been closed.
	ErrClosed = errors.New("queue closed")

	// ErrInvalidCapacity is returned when a queue is created with capacity < 1.
	ErrInvalidCapacity = errors.New("queue capacity must be at least 1")

	// ErrTaskDoneUnderflow is returned when TaskDone is called more times than Get handed out items.
	ErrTaskDoneUnderflow = errors.New("task done called more times than items taken")
)
