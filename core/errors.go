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

package core

import "errors"

// Domain validation errors
var (
	// ErrValidation is wrapped by every validation failure.
	// Pipeline stages use it to tell validation_failed apart from failed.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyEntityName indicates an extracted entity has no name.
	ErrEmptyEntityName = errors.New("entity name cannot be empty")

	// ErrEmptyEntityType indicates an extracted entity has no type.
	ErrEmptyEntityType = errors.New("entity type cannot be empty")

	// ErrEmptyRelationshipType indicates a relationship has no type.
	ErrEmptyRelationshipType = errors.New("relationship type cannot be empty")

	// ErrDanglingRelationship indicates a relationship endpoint is not an extracted entity.
	ErrDanglingRelationship = errors.New("relationship references unknown entity")

	// ErrEmptyPath indicates a document has no source path.
	ErrEmptyPath = errors.New("source path cannot be empty")

	// ErrEmptyText indicates a document has no text.
	ErrEmptyText = errors.New("document text cannot be empty")

	// ErrInvalidConfidence indicates a confidence outside [0, 1].
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")
)
