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

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a content-addressed identifier for entities and relationships.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// documentNamespace scopes document IDs derived from source paths.
var documentNamespace = uuid.MustParse("6f1c7a52-3c1e-5b7e-9d0a-4e2f8b9c1d30")

// DocumentID derives the stable document ID for a canonical source path.
// Re-ingesting the same path always addresses the same document.
func DocumentID(path string) string {
	return uuid.NewSHA1(documentNamespace, []byte(path)).String()
}

// RoutingMetadata describes where a document belongs.
// Sector, Subsector and Customer come from the path; DocType and
// Confidence are filled in by a classifier when one succeeds.
type RoutingMetadata struct {
	Sector     string
	Subsector  string
	Customer   string
	DocType    string
	Confidence float64
}

// DiscoveredFile is a file observed by the watcher, keyed by its canonical path.
type DiscoveredFile struct {
	Path         string
	DiscoveredAt time.Time
	Routing      RoutingMetadata
}

// WorkItem is one file's unit of pipeline work between enqueue and terminal outcome.
type WorkItem struct {
	ID         uuid.UUID
	File       DiscoveredFile
	EnqueuedAt time.Time
}

// NewWorkItem wraps a discovered file for the work queue.
func NewWorkItem(file DiscoveredFile) *WorkItem {
	return &WorkItem{
		ID:         uuid.New(),
		File:       file,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Stage identifies the pipeline step an item reached.
type Stage string

const (
	StageQueued      Stage = "queued"
	StageConverting  Stage = "converting"
	StageClassifying Stage = "classifying"
	StageExtracting  Stage = "extracting"
	StageIngesting   Stage = "ingesting"
	StageDone        Stage = "done"
)

// Status is the terminal outcome of a pipeline run.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusSkipped          Status = "skipped"
	StatusValidationFailed Status = "validation_failed"
	StatusConvertedFailed  Status = "converted_failed"
	StatusFailed           Status = "failed"
)

// PipelineResult records the terminal outcome of one WorkItem.
type PipelineResult struct {
	ItemID            uuid.UUID
	Path              string
	Stage             Stage  // Last stage entered
	Status            Status
	Error             string // Empty on success
	Routing           RoutingMetadata
	EntityCount       int
	RelationshipCount int
	DocID             string
	WorkerID          int
	StartedAt         time.Time
	FinishedAt        time.Time
}

// Duration returns how long the item spent in the pipeline.
func (r *PipelineResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ErrorRecord describes one non-success item for post-run triage.
type ErrorRecord struct {
	Path    string
	Stage   Stage
	Message string
}

// Classification is a classifier's opinion about a document.
// Empty fields leave the corresponding routing value unchanged.
type Classification struct {
	Sector     string
	Subsector  string
	DocType    string
	Confidence float64
}

// ExtractedEntity is a named entity found in document text.
type ExtractedEntity struct {
	Name       string
	Type       string
	Importance int // 1-10
}

// ExtractedRelationship links two extracted entities by name.
type ExtractedRelationship struct {
	Source string
	Target string
	Type   string
}

// Extraction is the output of entity extraction for one document.
type Extraction struct {
	Entities      []ExtractedEntity
	Relationships []ExtractedRelationship
}

// Entity is a stored, deduplicated entity.
type Entity struct {
	Id         ID
	Name       string
	Type       string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Tuple returns "(Type,Name)", the content used for the entity's ID.
func (e *Entity) Tuple() string {
	return EntityTuple(e.Name, e.Type)
}

// EntityTuple formats an entity name and type as "(type,name)".
func EntityTuple(name, entityType string) string {
	return "(" + entityType + "," + name + ")"
}

// EntityID returns the content ID for an entity name and type.
func EntityID(name, entityType string) ID {
	return IDFromContent(EntityTuple(name, entityType))
}

// Relationship is a stored, typed edge between two entities.
type Relationship struct {
	Id         ID
	SourceId   ID
	TargetId   ID
	Type       string
	InsertedAt time.Time
}

// RelationshipID returns the content ID for a typed edge.
func RelationshipID(source ID, relType string, target ID) ID {
	buf := make([]byte, 0, 16+len(relType))
	buf = binary.BigEndian.AppendUint64(buf, uint64(source))
	buf = append(buf, relType...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(target))
	return IDFromContent(string(buf))
}

// Document is the durable record produced by a successful ingest.
type Document struct {
	Id              string
	Path            string
	Routing         RoutingMetadata
	Text            string
	Vector          []float32 // Normalized embedding, empty when no embedder is configured
	EntityIds       []ID
	RelationshipIds []ID
	Revision        int // 1 on first ingest, incremented on every re-ingest of the same path
	InsertedAt      time.Time
	UpdatedAt       time.Time
}

// IngestReceipt is what a sink returns after persisting a document.
type IngestReceipt struct {
	DocID             string
	EntityCount       int
	RelationshipCount int
	Revision          int
}

// SearchResult is a document match with its relevance score.
type SearchResult struct {
	Document *Document
	Score    float32
}
