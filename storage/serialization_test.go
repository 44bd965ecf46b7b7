package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/docflow/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalID(t *testing.T) {
	for _, id := range []core.ID{0, 42, core.ID(18446744073709551615), core.IDFromContent("x")} {
		data, err := MarshalID(id)
		require.NoError(t, err)

		decoded, err := UnmarshalID(data)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestMarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &core.Document{
		Id:   core.DocumentID("/data/energy/grid/acme/report.md"),
		Path: "/data/energy/grid/acme/report.md",
		Routing: core.RoutingMetadata{
			Sector:     "energy",
			Subsector:  "grid",
			Customer:   "acme",
			DocType:    "report",
			Confidence: 0.8,
		},
		Text:            "Transformer inspection été",
		Vector:          []float32{0.1, 0.2, 0.3},
		EntityIds:       []core.ID{1, 2},
		RelationshipIds: []core.ID{3},
		Revision:        2,
		InsertedAt:      now,
		UpdatedAt:       now,
	}

	data, err := MarshalDocument(doc)
	require.NoError(t, err)

	decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.True(t, doc.InsertedAt.Equal(decoded.InsertedAt))
	assert.True(t, doc.UpdatedAt.Equal(decoded.UpdatedAt))
	decoded.InsertedAt, decoded.UpdatedAt = doc.InsertedAt, doc.UpdatedAt
	assert.Equal(t, doc, decoded)
}

func TestMarshalResult(t *testing.T) {
	now := time.Now().UTC()
	result := &core.PipelineResult{
		ItemID:     uuid.New(),
		Path:       "/data/a.md",
		Stage:      core.StageIngesting,
		Status:     core.StatusFailed,
		Error:      "sink unavailable",
		WorkerID:   3,
		StartedAt:  now,
		FinishedAt: now.Add(time.Second),
	}

	data, err := MarshalResult(result)
	require.NoError(t, err)

	decoded, err := UnmarshalResult(data)
	require.NoError(t, err)
	assert.Equal(t, result.ItemID, decoded.ItemID)
	assert.Equal(t, result.Status, decoded.Status)
	assert.Equal(t, result.Error, decoded.Error)
	assert.Equal(t, time.Second, decoded.Duration())
}

func TestUnmarshal_Invalid(t *testing.T) {
	for _, data := range [][]byte{{}, {0xFF, 0xFF, 0xFF}} {
		_, err := UnmarshalDocument(data)
		assert.ErrorIs(t, err, ErrSerializationFailed)

		_, err = UnmarshalEntity(data)
		assert.ErrorIs(t, err, ErrSerializationFailed)

		_, err = UnmarshalID(data)
		assert.ErrorIs(t, err, ErrSerializationFailed)
	}
}
