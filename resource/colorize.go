package resource

import (
	"image"
	"image/color"
	"math"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/world"
)

type vec3 [3]float32

func vecOf(c [3]uint8) vec3 {
	return vec3{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255}
}

func (a vec3) add(b vec3) vec3 {
	return vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a vec3) sub(b vec3) vec3 {
	return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (a vec3) mul(b vec3) vec3 {
	return vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func (a vec3) scale(s float32) vec3 {
	return vec3{a[0] * s, a[1] * s, a[2] * s}
}

func (a vec3) rgba() color.RGBA {
	b := func(v float32) uint8 {
		return uint8(math.Round(float64(clamp(v, 0, 1) * 255)))
	}
	return color.RGBA{R: b(a[0]), G: b(a[1]), B: b(a[2]), A: 0xff}
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(hi, v))
}

// colormap corners: cold, hot and dry, hot and wet
var (
	grassColormap   = [3]vec3{vecOf([3]uint8{0x80, 0xb4, 0x97}), vecOf([3]uint8{0xbf, 0xb7, 0x55}), vecOf([3]uint8{0x47, 0xcd, 0x33})}
	foliageColormap = [3]vec3{vecOf([3]uint8{0x60, 0xa1, 0x7b}), vecOf([3]uint8{0xae, 0xa4, 0x2a}), vecOf([3]uint8{0x1a, 0xbf, 0x00})}

	birchColor      = vecOf([3]uint8{0x80, 0xa7, 0x55})
	evergreenColor  = vecOf([3]uint8{0x61, 0x99, 0x61})
	waterColor      = vecOf([3]uint8{0x3f, 0x76, 0xe4})
	darkForestColor = vecOf([3]uint8{0x28, 0x34, 0x0a})
	swampGrassColor = vecOf([3]uint8{0x6a, 0x70, 0x39})
)

const seaLevel = 64

func colormap(corners [3]vec3, temp, downfall float32) vec3 {
	t := clamp(temp, 0, 1)
	d := clamp(downfall, 0, 1) * t
	return corners[0].add(corners[1].sub(corners[0]).scale(t)).add(corners[2].sub(corners[1]).scale(d))
}

// Colorizer turns processed chunks into map and lightmap pixels using
// biome tints and height shading.
type Colorizer struct {
	Biomes *BiomeTable
}

func NewColorizer(biomes *BiomeTable) *Colorizer {
	if biomes == nil {
		biomes = DefaultBiomeTable()
	}
	return &Colorizer{Biomes: biomes}
}

// temperature drops above sea level
func adjustedTemp(info BiomeInfo, depth int32) float32 {
	if depth <= seaLevel {
		return info.Temp
	}
	return info.Temp - 0.00166667*float32(depth-seaLevel)
}

func (c *Colorizer) tint(b world.BlockType, info BiomeInfo, depth int32) (vec3, bool) {
	switch {
	case b.Flags.Has(world.BlockWater):
		if info.WaterColor != nil {
			return vecOf(*info.WaterColor), true
		}
		return waterColor, true
	case b.Flags.Has(world.BlockBirch):
		return birchColor, true
	case b.Flags.Has(world.BlockSpruce):
		return evergreenColor, true
	case b.Flags.Has(world.BlockGrass):
		var g vec3
		if info.GrassColor != nil {
			g = vecOf(*info.GrassColor)
		} else {
			g = colormap(grassColormap, adjustedTemp(info, depth), info.Downfall)
		}
		switch info.GrassModifier {
		case GrassModifierDarkForest:
			g = g.add(darkForestColor).scale(0.5)
		case GrassModifierSwamp:
			g = swampGrassColor
		}
		return g, true
	case b.Flags.Has(world.BlockFoliage):
		if info.FoliageColor != nil {
			return vecOf(*info.FoliageColor), true
		}
		return colormap(foliageColormap, adjustedTemp(info, depth), info.Downfall), true
	}
	return vec3{}, false
}

// heightShade brightens terrain above sea level and darkens what is
// below it.
func heightShade(depth int32) float32 {
	return clamp(1+float32(depth-seaLevel)/384, 0.7, 1.2)
}

// BlockColor is the final map color of a column.
func (c *Colorizer) BlockColor(b world.BlockType, biome world.Biome, depth int32) color.RGBA {
	col := vecOf(b.Color)
	if b.Flags&(world.BlockGrass|world.BlockFoliage|world.BlockBirch|world.BlockSpruce|world.BlockWater) != 0 {
		info, _ := c.Biomes.Lookup(biome)
		if t, ok := c.tint(b, info, depth); ok {
			col = col.mul(t)
		}
	}
	return col.scale(heightShade(depth)).rgba()
}

// LightColor is the lightmap pixel of a column with a block: black,
// the darker the less light reaches the surface.
func LightColor(b world.BlockType) color.RGBA {
	light := uint16(min(b.Light, 15))
	return color.RGBA{A: uint8(192 * (15 - light) / 15)}
}

// RenderChunk draws one chunk into two 16x16 images. Columns without a
// block stay transparent in both.
func (c *Colorizer) RenderChunk(biomes []world.Biome, chunk *world.ProcessedChunk) (*image.RGBA, *image.RGBA) {
	r := image.Rect(0, 0, primitives.BlocksPerChunk, primitives.BlocksPerChunk)
	mapImg := image.NewRGBA(r)
	lightImg := image.NewRGBA(r)
	for z := 0; z < primitives.BlocksPerChunk; z++ {
		for x := 0; x < primitives.BlocksPerChunk; x++ {
			i := world.ColumnIndex(x, z)
			b := chunk.Blocks[i]
			if b.IsZero() {
				continue
			}
			var biome world.Biome
			if bi := int(chunk.Biomes[i]); bi < len(biomes) {
				biome = biomes[bi]
			}
			mapImg.SetRGBA(x, z, c.BlockColor(b, biome, chunk.Depths[i]))
			lightImg.SetRGBA(x, z, LightColor(b))
		}
	}
	return mapImg, lightImg
}
