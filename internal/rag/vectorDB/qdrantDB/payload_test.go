package qdrantDB

import (
	"testing"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	payload, err := toPayload("manual.pdf/doc-3", map[string]any{
		commonModels.MetaTitle:       "Install",
		commonModels.MetaChunkNumber: 3,
		"tags":                       []string{"a", "b"},
		"nested":                     map[string]string{"k": "v"},
	})
	require.NoError(t, err)
	assert.Equal(t, "manual.pdf/doc-3", payload[recordIDKey].GetStringValue())

	id, metadata := fromPayload(payload)
	assert.Equal(t, "manual.pdf/doc-3", id)
	assert.NotContains(t, metadata, recordIDKey)
	assert.Equal(t, "Install", metadata[commonModels.MetaTitle])
	assert.EqualValues(t, 3, metadata[commonModels.MetaChunkNumber])
	assert.Equal(t, []any{"a", "b"}, metadata["tags"])
	assert.Equal(t, map[string]any{"k": "v"}, metadata["nested"])
}

func TestPointIDIsDeterministic(t *testing.T) {
	assert.Equal(t, PointID("doc-1"), PointID("doc-1"))
	assert.NotEqual(t, PointID("doc-1"), PointID("doc-2"))
	assert.Len(t, PointID("doc-1"), 36)
}
