package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaimenoain/ceeq/internal/store"
)

func TestSeed(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, seed(ctx, mem, "fp-demo"))

	// Seeding twice fails on the duplicate email rather than piling up
	// demo rows.
	require.Error(t, seed(ctx, mem, "fp-demo"))

	shared, err := mem.ListSharedDeals(ctx)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "Pecan Valley Manufacturing", shared[0].CompanyName)
	assert.Equal(t, "Bluebonnet Search", shared[0].SearcherName)

	sig, err := mem.CheckGlobalCollision(ctx, "fp-demo")
	require.NoError(t, err)
	assert.True(t, sig.Collision)
}
