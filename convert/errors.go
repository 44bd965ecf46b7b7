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

package convert

import "errors"

var (
	// ErrNoOutput is returned when every supporting converter failed.
	ErrNoOutput = errors.New("no converter produced output")

	// ErrFileTooLarge is returned for inputs above the chain's size limit.
	ErrFileTooLarge = errors.New("file too large to convert")

	// ErrToolNotFound is returned when an external conversion tool is missing.
	ErrToolNotFound = errors.New("conversion tool not found")

	// ErrMissingDocumentPart is returned for DOCX archives without word/document.xml.
	ErrMissingDocumentPart = errors.New("docx archive has no word/document.xml")
)
