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

package ai

// EntityTypes is the vocabulary entity extraction prompts steer towards.
var EntityTypes = []string{
	"asset",
	"chemical",
	"contract",
	"equipment",
	"facility",
	"incident",
	"location",
	"organization",
	"person",
	"procedure",
	"product",
	"regulation",
	"software",
	"standard",
	"system",
	"vulnerability",
}

// RelationshipTypes is the vocabulary for extracted relationships.
var RelationshipTypes = []string{
	"depends_on",
	"located_in",
	"operated_by",
	"owned_by",
	"part_of",
	"regulated_by",
	"supplies",
	"affects",
	"mitigates",
	"references",
}

// DocTypes is the vocabulary for document classification.
var DocTypes = []string{
	"assessment",
	"contract",
	"correspondence",
	"incident_report",
	"invoice",
	"manual",
	"meeting_notes",
	"policy",
	"procedure",
	"proposal",
	"report",
	"specification",
}
