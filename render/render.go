package render

import (
	"image"
	"image/draw"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/world"
)

// TileSize is the side of every tile in pixels, one pixel per block.
const TileSize = primitives.BlocksPerRegion

// Colorizer turns one processed chunk into its map and lightmap pixels.
type Colorizer interface {
	RenderChunk(biomes []world.Biome, chunk *world.ProcessedChunk) (mapImg, lightImg *image.RGBA)
}

// Tile holds both base tiles of a region.
type Tile struct {
	Map   *image.RGBA
	Light *image.RGBA
}

// Image returns the tile of the given kind.
func (t Tile) Image(kind primitives.TileKind) *image.RGBA {
	if kind == primitives.TileKindLightmap {
		return t.Light
	}
	return t.Map
}

// RenderRegion composes the chunks of a region into its base tiles.
// Absent chunks stay transparent. The second value is false when the
// region has no chunks at all, in which case no tile exists for it.
func RenderRegion(region *world.ProcessedRegion, c Colorizer) (Tile, bool) {
	if region == nil || region.Present() == 0 {
		return Tile{}, false
	}
	r := image.Rect(0, 0, TileSize, TileSize)
	ret := Tile{Map: image.NewRGBA(r), Light: image.NewRGBA(r)}
	for i, chunk := range region.Chunks {
		if chunk == nil {
			continue
		}
		cc := primitives.ChunkAt(i)
		mapImg, lightImg := c.RenderChunk(region.BiomeList, chunk)
		at := image.Pt(int(cc.X)*primitives.BlocksPerChunk, int(cc.Z)*primitives.BlocksPerChunk)
		dr := image.Rectangle{Min: at, Max: at.Add(image.Pt(primitives.BlocksPerChunk, primitives.BlocksPerChunk))}
		draw.Draw(ret.Map, dr, mapImg, image.Point{}, draw.Src)
		draw.Draw(ret.Light, dr, lightImg, image.Point{}, draw.Src)
	}
	return ret, true
}
