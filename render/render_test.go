package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/resource"
	"github.com/maxsupermanhd/RegionTiles/world"
)

type solidColorizer struct {
	calls int
}

var (
	solidMap   = color.RGBA{R: 200, G: 100, B: 50, A: 255}
	solidLight = color.RGBA{A: 128}
)

func (s *solidColorizer) RenderChunk(biomes []world.Biome, chunk *world.ProcessedChunk) (*image.RGBA, *image.RGBA) {
	s.calls++
	r := image.Rect(0, 0, 16, 16)
	m, l := image.NewRGBA(r), image.NewRGBA(r)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			m.SetRGBA(x, y, solidMap)
			l.SetRGBA(x, y, solidLight)
		}
	}
	return m, l
}

func TestRenderRegionSingleChunk(t *testing.T) {
	region := &world.ProcessedRegion{}
	region.SetChunk(primitives.ChunkCoords{X: 5, Z: 5}, &world.ProcessedChunk{})
	c := &solidColorizer{}
	tile, ok := RenderRegion(region, c)
	require.True(t, ok)
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, image.Rect(0, 0, 512, 512), tile.Map.Bounds())

	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			inside := x >= 80 && x < 96 && y >= 80 && y < 96
			if inside {
				require.Equal(t, solidMap, tile.Map.RGBAAt(x, y), "map %d,%d", x, y)
				require.Equal(t, solidLight, tile.Light.RGBAAt(x, y), "light %d,%d", x, y)
			} else {
				require.Equal(t, color.RGBA{}, tile.Map.RGBAAt(x, y), "map %d,%d", x, y)
				require.Equal(t, color.RGBA{}, tile.Light.RGBAAt(x, y), "light %d,%d", x, y)
			}
		}
	}
	assert.Same(t, tile.Light, tile.Image(primitives.TileKindLightmap))
	assert.Same(t, tile.Map, tile.Image(primitives.TileKindMap))
}

func TestRenderRegionEmpty(t *testing.T) {
	c := &solidColorizer{}
	_, ok := RenderRegion(&world.ProcessedRegion{}, c)
	assert.False(t, ok)
	assert.Zero(t, c.calls)
}

func TestRenderRegionWithColorizer(t *testing.T) {
	region := &world.ProcessedRegion{BiomeList: []world.Biome{"minecraft:plains"}}
	chunk := &world.ProcessedChunk{}
	chunk.Blocks[world.ColumnIndex(3, 4)] = world.BlockType{Flags: world.BlockOpaque, Color: [3]uint8{100, 100, 100}, Light: 15}
	chunk.Depths[world.ColumnIndex(3, 4)] = 64
	region.SetChunk(primitives.ChunkCoords{X: 31, Z: 0}, chunk)

	tile, ok := RenderRegion(region, resource.NewColorizer(nil))
	require.True(t, ok)
	assert.Equal(t, color.RGBA{R: 100, G: 100, B: 100, A: 255}, tile.Map.RGBAAt(31*16+3, 4))
	assert.Equal(t, color.RGBA{}, tile.Light.RGBAAt(31*16+3, 4), "full light is transparent")
	assert.Equal(t, color.RGBA{}, tile.Map.RGBAAt(31*16+2, 4))
}

func TestGroupByParent(t *testing.T) {
	groups := GroupByParent([]primitives.TileCoords{
		{X: 0, Z: 0}, {X: 1, Z: 1}, {X: -1, Z: 0}, {X: -1, Z: -1}, {X: 3, Z: 2},
	})
	require.Len(t, groups, 4)

	g := groups[primitives.TileCoords{X: 0, Z: 0}]
	assert.Equal(t, [4]bool{true, false, false, true}, g.Present)
	assert.Equal(t, [4]primitives.TileCoords{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 0, Z: 1}, {X: 1, Z: 1}}, g.Coords)

	g = groups[primitives.TileCoords{X: -1, Z: 0}]
	assert.Equal(t, [4]bool{false, true, false, false}, g.Present)
	assert.Equal(t, primitives.TileCoords{X: -1, Z: 0}, g.Coords[1])

	g = groups[primitives.TileCoords{X: -1, Z: -1}]
	assert.Equal(t, [4]bool{false, false, false, true}, g.Present)

	g = groups[primitives.TileCoords{X: 1, Z: 1}]
	assert.Equal(t, [4]bool{false, true, false, false}, g.Present)
	for i, c := range g.Coords {
		assert.Equal(t, primitives.TileCoords{X: 1, Z: 1}, c.Parent(), "child %d", i)
	}
}

func solidTile(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func assertNear(t *testing.T, want, got color.RGBA, msg string) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 1, msg)
	assert.InDelta(t, want.G, got.G, 1, msg)
	assert.InDelta(t, want.B, got.B, 1, msg)
	assert.InDelta(t, want.A, got.A, 1, msg)
}

func TestBuildMipmapQuadrants(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}
	out := BuildMipmap([4]image.Image{solidTile(red), solidTile(blue), nil, solidTile(green)})
	require.Equal(t, image.Rect(0, 0, 512, 512), out.Bounds())

	assertNear(t, red, out.RGBAAt(128, 128), "top left")
	assertNear(t, blue, out.RGBAAt(384, 128), "top right")
	assert.Equal(t, color.RGBA{}, out.RGBAAt(128, 384), "missing child")
	assertNear(t, green, out.RGBAAt(384, 384), "bottom right")
}

func TestBuildMipmapEmpty(t *testing.T) {
	out := BuildMipmap([4]image.Image{})
	assert.Equal(t, color.RGBA{}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, out.RGBAAt(511, 511))
}
