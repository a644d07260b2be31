package oasvalidation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveRef(t *testing.T) {
	rawDoc := map[string]any{
		"components": map[string]any{
			"schemas": map[string]any{
				"Item":  map[string]any{"type": "object"},
				"Alias": map[string]any{"$ref": "#/components/schemas/Item"},
				"Loop":  map[string]any{"$ref": "#/components/schemas/Loop"},
				"A":     map[string]any{"$ref": "#/components/schemas/B"},
				"B":     map[string]any{"$ref": "#/components/schemas/A"},
			},
		},
	}

	t.Run("passthrough without ref", func(t *testing.T) {
		node := map[string]any{"type": "string"}
		got, err := resolveRef(rawDoc, node)
		require.NoError(t, err)
		require.Equal(t, node, got)
	})

	t.Run("non-map passthrough", func(t *testing.T) {
		got, err := resolveRef(rawDoc, true)
		require.NoError(t, err)
		require.Equal(t, true, got)
	})

	t.Run("single ref", func(t *testing.T) {
		got, err := resolveRef(rawDoc, map[string]any{"$ref": "#/components/schemas/Item"})
		require.NoError(t, err)
		require.Equal(t, map[string]any{"type": "object"}, got)
	})

	t.Run("chained ref", func(t *testing.T) {
		got, err := resolveRef(rawDoc, map[string]any{"$ref": "#/components/schemas/Alias"})
		require.NoError(t, err)
		require.Equal(t, map[string]any{"type": "object"}, got)
	})

	t.Run("self-referential ref", func(t *testing.T) {
		_, err := resolveRef(rawDoc, map[string]any{"$ref": "#/components/schemas/Loop"})
		require.ErrorIs(t, err, ErrRefCycle)
	})

	t.Run("mutual cycle", func(t *testing.T) {
		_, err := resolveRef(rawDoc, map[string]any{"$ref": "#/components/schemas/A"})
		require.ErrorIs(t, err, ErrRefCycle)
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := resolveRef(rawDoc, map[string]any{"$ref": "#/components/schemas/Nope"})
		require.Error(t, err)
	})

	t.Run("external ref rejected", func(t *testing.T) {
		_, err := resolveRef(rawDoc, map[string]any{"$ref": "other.json#/Item"})
		require.Error(t, err)
	})
}
