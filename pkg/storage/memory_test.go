package storage

import (
	"context"
	"testing"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	ID     string `json:"id"`
	Owner  string `json:"owner"`
	Active bool   `json:"active"`
	Count  int    `json:"count"`
}

func TestMemoryCollection(t *testing.T) {
	ctx := context.Background()
	c := NewMemory().Collection("docs")

	require.NoError(t, c.Insert(ctx, "1", doc{ID: "1", Owner: "alice", Active: true}))
	require.NoError(t, c.Insert(ctx, "2", doc{ID: "2", Owner: "bob"}))
	require.NoError(t, c.Insert(ctx, "3", doc{ID: "3", Owner: "alice"}))
	assert.Error(t, c.Insert(ctx, "1", doc{ID: "1"}))

	var got doc
	require.NoError(t, c.FindByID(ctx, "2", &got))
	assert.Equal(t, "bob", got.Owner)

	assert.ErrorIs(t, c.FindByID(ctx, "404", &got), pkg.ErrNotFound)

	var owned []doc
	require.NoError(t, c.FindByField(ctx, "owner", "alice", &owned))
	require.Len(t, owned, 2)
	assert.Equal(t, "1", owned[0].ID)
	assert.Equal(t, "3", owned[1].ID)

	var active []doc
	require.NoError(t, c.FindByField(ctx, "active", true, &active))
	require.Len(t, active, 1)

	require.NoError(t, c.UpdateByID(ctx, "3", map[string]interface{}{"owner": "bob", "count": 2}))
	require.NoError(t, c.FindByID(ctx, "3", &got))
	assert.Equal(t, "bob", got.Owner)
	assert.Equal(t, 2, got.Count)

	n, err := c.Count(ctx, "owner", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	assert.ErrorIs(t, c.UpdateByID(ctx, "404", map[string]interface{}{"owner": "x"}), pkg.ErrNotFound)
}

func TestMemoryCollectionsAreSeparate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Collection("a").Insert(ctx, "1", doc{ID: "1"}))

	var got doc
	assert.ErrorIs(t, m.Collection("b").FindByID(ctx, "1", &got), pkg.ErrNotFound)
	require.NoError(t, m.Collection("a").FindByID(ctx, "1", &got))
}
