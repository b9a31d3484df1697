package primitives

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParentFloorDivision(t *testing.T) {
	cases := []struct {
		c, p TileCoords
	}{
		{TileCoords{0, 0}, TileCoords{0, 0}},
		{TileCoords{1, 1}, TileCoords{0, 0}},
		{TileCoords{-1, -1}, TileCoords{-1, -1}},
		{TileCoords{-2, 3}, TileCoords{-1, 1}},
		{TileCoords{-3, -4}, TileCoords{-2, -2}},
		{TileCoords{7, -5}, TileCoords{3, -3}},
	}
	for _, c := range cases {
		assert.Equal(t, c.p, c.c.Parent(), "parent of %s", c.c)
	}
}

func TestSiblingsShareParent(t *testing.T) {
	for x := int32(-6); x <= 6; x++ {
		for z := int32(-6); z <= 6; z++ {
			p := TileCoords{x, z}
			for _, off := range [][2]int32{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
				child := TileCoords{p.X*2 + off[0], p.Z*2 + off[1]}
				require.Equal(t, p, child.Parent())
				qx, qz := child.Quadrant()
				require.Equal(t, int(off[0]), qx)
				require.Equal(t, int(off[1]), qz)
			}
		}
	}
}

func TestChunkIndexRoundTrip(t *testing.T) {
	seen := map[int]bool{}
	for z := 0; z < ChunksPerRegion; z++ {
		for x := 0; x < ChunksPerRegion; x++ {
			cc := ChunkCoords{X: uint8(x), Z: uint8(z)}
			i := cc.Index()
			require.False(t, seen[i])
			seen[i] = true
			require.Equal(t, cc, ChunkAt(i))
		}
	}
	assert.Len(t, seen, RegionChunkSlots)
}

func TestTileCoordMapOrderedDedup(t *testing.T) {
	m := NewTileCoordMap()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, c := range []TileCoords{{3, 1}, {-2, 1}, {0, -1}, {3, 1}, {1, 1}} {
				m.Insert(c)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, m.Len())
	assert.Equal(t, []TileCoords{{0, -1}, {-2, 1}, {1, 1}, {3, 1}}, m.Coords())
	assert.True(t, m.Contains(TileCoords{-2, 1}))
	assert.False(t, m.Contains(TileCoords{-2, 0}))

	b, ok := m.Bounds()
	require.True(t, ok)
	assert.Equal(t, Bounds{MinX: -2, MaxX: 3, MinZ: -1, MaxZ: 1}, b)

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"-1":[0],"1":[-2,1,3]}`, string(raw))
}

func TestFixedPoint(t *testing.T) {
	m := NewTileCoordMap()
	assert.True(t, m.WithinFixedPoint())
	m.Insert(TileCoords{-1, 0})
	m.Insert(TileCoords{0, -1})
	assert.True(t, m.WithinFixedPoint())
	m.Insert(TileCoords{1, 0})
	assert.False(t, m.WithinFixedPoint())
}

func TestVersionValidity(t *testing.T) {
	now := time.Now()
	older := now.Add(-time.Minute)
	v := CurrentVersions

	assert.True(t, v.IsValid(ArtifactRegion, v.Get(ArtifactRegion), older, now))
	assert.True(t, v.IsValid(ArtifactRegion, v.Get(ArtifactRegion), now, now))
	assert.False(t, v.IsValid(ArtifactRegion, v.Get(ArtifactRegion), now, older))
	assert.False(t, v.IsValid(ArtifactRegion, v.Get(ArtifactRegion)+1, older, now))

	bumped := v.With(ArtifactMap, v.Get(ArtifactMap)+1)
	assert.False(t, bumped.IsValid(ArtifactMap, v.Get(ArtifactMap), older, now))
	assert.True(t, bumped.IsValid(ArtifactEntities, v.Get(ArtifactEntities), older, now))
	assert.Equal(t, CurrentVersions.Get(ArtifactMap), v.Get(ArtifactMap), "With must not alter the source table")
}

func TestPaths(t *testing.T) {
	p := Paths{InputDir: "world", OutputDir: "out"}
	c := TileCoords{X: -3, Z: 7}
	assert.Equal(t, filepath.Join("world", "region", "r.-3.7.mca"), p.RegionPath(c))
	assert.Equal(t, filepath.Join("out", "processed", "r.-3.7.bin"), p.ProcessedPath(c))
	assert.Equal(t, filepath.Join("out", "processed", "entities", "0", "r.-3.7.bin"), p.EntitiesPath(0, c))
	assert.Equal(t, filepath.Join("out", "processed", "entities", "entities.bin"), p.EntitiesFinalPath())
	assert.Equal(t, filepath.Join("out", "map", "2", "r.-3.7.png"), p.TilePath(TileKindMap, 2, c))
	assert.Equal(t, filepath.Join("out", "light", "0", "r.-3.7.png"), p.TilePath(TileKindLightmap, 0, c))
	assert.Equal(t, filepath.Join("out", "info.json"), p.ViewerInfoPath())
	assert.Equal(t, filepath.Join("out", "entities.json"), p.ViewerEntitiesPath())
}

func TestParseRegionFilename(t *testing.T) {
	c, ok := ParseRegionFilename("r.-12.5.mca")
	require.True(t, ok)
	assert.Equal(t, TileCoords{X: -12, Z: 5}, c)

	for _, bad := range []string{"r.1.mca", "r.1.2.mcr", "x.1.2.mca", "r.a.2.mca", "r.1.2.mca.tmp"} {
		_, ok := ParseRegionFilename(bad)
		assert.False(t, ok, bad)
	}
}
