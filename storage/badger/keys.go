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

package badger

import (
	"encoding/binary"

	"github.com/poiesic/docflow/core"
)

// Key prefixes. Each ends in ':' so no prefix is a prefix of another.
// resultSeq holds the result sequence lease.
const (
	documentPrefix        = "doc:"
	documentPathPrefix    = "docpath:"
	documentEntityPrefix  = "docent:"
	entityPrefix          = "ent:"
	entityTuplePrefix     = "enttn:"
	relationshipPrefix    = "rel:"
	relationshipIdxPrefix = "relent:"
	resultPrefix          = "res:"
	resultPathPrefix      = "respath:"
	resultSeq             = "resseq"
)

func appendID(buf []byte, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id string) []byte {
	return []byte(documentPrefix + id)
}

// makeDocumentPathKey maps a source path to its document ID.
func makeDocumentPathKey(path string) []byte {
	return []byte(documentPathPrefix + path)
}

// makeDocumentEntityKey indexes a document under an entity.
// Format: prefix + entityID (8 bytes BE) + docID
func makeDocumentEntityKey(entityID core.ID, docID string) []byte {
	return append(makePartialDocumentEntityKey(entityID), docID...)
}

func makePartialDocumentEntityKey(entityID core.ID) []byte {
	return appendID([]byte(documentEntityPrefix), entityID)
}

// makeEntityKey generates a key for an entity by ID.
func makeEntityKey(id core.ID) []byte {
	return appendID([]byte(entityPrefix), id)
}

// makeEntityTupleKey generates a composite key for lookup by (type, name).
// Format: prefix + type + 0x00 + name
func makeEntityTupleKey(name, entityType string) []byte {
	buf := make([]byte, 0, len(entityTuplePrefix)+len(entityType)+1+len(name))
	buf = append(buf, entityTuplePrefix...)
	buf = append(buf, entityType...)
	buf = append(buf, 0)
	return append(buf, name...)
}

// makeRelationshipKey generates a key for a relationship by ID.
func makeRelationshipKey(id core.ID) []byte {
	return appendID([]byte(relationshipPrefix), id)
}

// makeRelationshipIndexKey indexes a relationship under one endpoint.
// Format: prefix + entityID (8 bytes BE) + relationshipID (8 bytes BE)
func makeRelationshipIndexKey(entityID, relID core.ID) []byte {
	return appendID(makePartialRelationshipIndexKey(entityID), relID)
}

func makePartialRelationshipIndexKey(entityID core.ID) []byte {
	return appendID([]byte(relationshipIdxPrefix), entityID)
}

// makeResultKey orders results by sequence number.
func makeResultKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte(resultPrefix), seq)
}

// makeResultPathKey indexes a result under its path.
// Format: prefix + path + 0x00 + seq (8 bytes BE)
func makeResultPathKey(path string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(makePartialResultPathKey(path), seq)
}

func makePartialResultPathKey(path string) []byte {
	buf := make([]byte, 0, len(resultPathPrefix)+len(path)+1+8)
	buf = append(buf, resultPathPrefix...)
	buf = append(buf, path...)
	return append(buf, 0)
}
