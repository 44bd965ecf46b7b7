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

package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
)

const classificationSchema = `{
  "type": "object",
  "properties": {
    "sector": {"type": "string"},
    "subsector": {"type": "string"},
    "doc_type": {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["sector", "subsector", "doc_type", "confidence"],
  "additionalProperties": false
}`

const classificationPromptTemplate = `Classify the document given by the user and return JSON.

Output ONLY valid JSON which complies with the schema below. Do not include any preamble, explanation,
or acknowledgment. Start your response with { and end it with }.

%s

Rules:
- sector must be exactly one of: %s.
- subsector is a short lowercase label with underscores (e.g. "substations", "water_treatment"), or "" if unclear.
- doc_type must be exactly one of: %s.
- confidence is a number from 0 to 1 describing how certain the classification is.
- If the sector cannot be determined return "sector": "" and a confidence below 0.3.
%s
Example:
Input: "Quarterly inspection of the north substation transformers found two relays past service life."
Output:
{"sector":"energy","subsector":"substations","doc_type":"report","confidence":0.9}`

const extractionSchema = `{
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "type": {"type": "string"},
          "importance": {"type": "integer", "minimum": 1, "maximum": 10}
        },
        "required": ["name", "type", "importance"]
      }
    },
    "relationships": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "source": {"type": "string"},
          "target": {"type": "string"},
          "type": {"type": "string"}
        },
        "required": ["source", "target", "type"]
      }
    }
  },
  "required": ["entities", "relationships"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `Extract the named entities in the document given by the user and the relationships between them.
Return JSON only, starting with { and ending with }, following this schema:

%s

Rules:
- Entity names are lowercase and as short as possible while staying unambiguous.
- Entity type must be exactly one of: %s.
- Importance is an integer from 1 (incidental) to 10 (central to the document).
- Relationship source and target must be names from the entities list.
- Relationship type must be exactly one of: %s.
- Include only entities explicitly mentioned in the text. Do not hallucinate.
- If nothing can be extracted, return {"entities": [], "relationships": []}.
%s
Example:
Input: "Acme Utilities operates the Riverside substation, which supplies the county hospital."
Output:
{
  "entities": [
    {"name":"acme utilities","type":"organization","importance":9},
    {"name":"riverside substation","type":"facility","importance":9},
    {"name":"county hospital","type":"facility","importance":6}
  ],
  "relationships": [
    {"source":"riverside substation","target":"acme utilities","type":"operated_by"},
    {"source":"riverside substation","target":"county hospital","type":"supplies"}
  ]
}`

// buildClassificationPrompt embeds the sector vocabulary and any routing
// hint taken from the document's path.
func buildClassificationPrompt(sectors []string, routing core.RoutingMetadata) string {
	hint := ""
	if routing.Sector != "" {
		hint = fmt.Sprintf("- The document was filed under sector %q", routing.Sector)
		if routing.Subsector != "" {
			hint += fmt.Sprintf(", subsector %q", routing.Subsector)
		}
		hint += "; prefer it unless the text clearly contradicts it.\n"
	}
	return fmt.Sprintf(classificationPromptTemplate,
		classificationSchema,
		strings.Join(sectors, ", "),
		strings.Join(ai.DocTypes, ", "),
		hint)
}

func buildExtractionPrompt(sector string) string {
	hint := ""
	if sector != "" {
		hint = fmt.Sprintf("- The document belongs to the %s sector.\n", strings.ReplaceAll(sector, "_", " "))
	}
	return fmt.Sprintf(extractionPromptTemplate,
		extractionSchema,
		strings.Join(ai.EntityTypes, ", "),
		strings.Join(ai.RelationshipTypes, ", "),
		hint)
}
