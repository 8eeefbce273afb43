package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextDataMerge(t *testing.T) {
	base := ContextData{
		Topic:      "auth",
		Entities:   map[string]any{"service": "login"},
		References: []string{"rfc6749"},
		CodeContext: &CodeContext{
			Language: "javascript",
			Patterns: []string{"async-await"},
		},
	}

	t.Run("EmptyPatchKeepsBase", func(t *testing.T) {
		merged := base.Merge(ContextData{})
		assert.Equal(t, base, merged)
	})

	t.Run("SetFieldsReplaceWholesale", func(t *testing.T) {
		merged := base.Merge(ContextData{
			Topic:    "billing",
			Entities: map[string]any{"service": "invoices"},
		})
		assert.Equal(t, "billing", merged.Topic)
		assert.Equal(t, map[string]any{"service": "invoices"}, merged.Entities)
		// Fields absent from the patch persist.
		assert.Equal(t, []string{"rfc6749"}, merged.References)
		assert.Equal(t, base.CodeContext, merged.CodeContext)
	})

	t.Run("CodeContextNotDeepMerged", func(t *testing.T) {
		patch := ContextData{CodeContext: &CodeContext{Language: "python"}}
		merged := base.Merge(patch)
		assert.Equal(t, "python", merged.CodeContext.Language)
		assert.Empty(t, merged.CodeContext.Patterns)
	})

	t.Run("BaseUnchanged", func(t *testing.T) {
		_ = base.Merge(ContextData{Topic: "other"})
		assert.Equal(t, "auth", base.Topic)
	})
}

func TestMergeShallow(t *testing.T) {
	t.Run("SrcWinsOnCollision", func(t *testing.T) {
		dst := map[string]any{"a": 1, "b": 2}
		src := map[string]any{"b": 3, "c": 4}
		merged := MergeShallow(dst, src)
		assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, merged)
	})

	t.Run("NilInputs", func(t *testing.T) {
		assert.Equal(t, map[string]any{"a": 1}, MergeShallow(nil, map[string]any{"a": 1}))
		assert.Equal(t, map[string]any{"a": 1}, MergeShallow(map[string]any{"a": 1}, nil))
		assert.Empty(t, MergeShallow(nil, nil))
	})

	t.Run("InputsUntouched", func(t *testing.T) {
		dst := map[string]any{"a": 1}
		src := map[string]any{"a": 2}
		MergeShallow(dst, src)
		assert.Equal(t, 1, dst["a"])
		assert.Equal(t, 2, src["a"])
	})
}
