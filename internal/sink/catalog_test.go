// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/npmscout/pkg/types"
)

func TestCatalogUpsertAndLoad(t *testing.T) {
	fixedClock(t)
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := OpenCatalog(path)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Upsert(ctx, samplePackages()))

	got, err := c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Load orders by name: is-odd before left-pad.
	assert.Equal(t, "is-odd", got[0].Name)
	assert.Equal(t, "left-pad", got[1].Name)

	lp := got[1]
	assert.Equal(t, "1.3.0", lp.Version)
	assert.Equal(t, "azer", lp.Author)
	assert.Equal(t, int64(12345), lp.Size)
	assert.Equal(t, 7, lp.Files)
	assert.Equal(t, int64(2500000), lp.DownloadsWeekly)
	assert.Equal(t, 540, lp.Dependents)
	assert.Equal(t, []string{"leftpad", "pad"}, lp.Keywords)
	assert.InDelta(t, 0.9, lp.PopularityScore, 1e-9)
}

func TestCatalogUpsertReplacesExistingRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := OpenCatalog(path)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Upsert(ctx, []types.Package{{Name: "react", Version: "17.0.0", Size: 100}}))
	require.NoError(t, c.Upsert(ctx, []types.Package{{Name: "react", Version: "18.2.0", Size: 200}}))

	got, err := c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "18.2.0", got[0].Version)
	assert.Equal(t, int64(200), got[0].Size)
}

func TestCatalogReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	c, err := OpenCatalog(path)
	require.NoError(t, err)
	require.NoError(t, c.Upsert(ctx, []types.Package{{Name: "lodash", Version: "4.17.21"}}))
	require.NoError(t, c.Close())

	reopened, err := OpenCatalog(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "lodash", got[0].Name)
}
