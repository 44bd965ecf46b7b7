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

package ingestion

import "errors"

var (
	// ErrConverterRequired is returned when no format converter is provided.
	ErrConverterRequired = errors.New("format converter required")

	// ErrClassifierRequired is returned when no classifier is provided.
	ErrClassifierRequired = errors.New("classifier required")

	// ErrExtractorRequired is returned when no entity extractor is provided.
	ErrExtractorRequired = errors.New("entity extractor required")

	// ErrSinkRequired is returned when no sink is provided.
	ErrSinkRequired = errors.New("sink required")

	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("orchestrator already started")

	// ErrInvalidMode is returned for a run mode other than watch or batch.
	ErrInvalidMode = errors.New("invalid run mode")

	// ErrNoConverter is recorded for files no converter supports.
	ErrNoConverter = errors.New("no converter supports file")

	// ErrNoText is recorded when conversion produced no text.
	ErrNoText = errors.New("conversion produced no text")
)
