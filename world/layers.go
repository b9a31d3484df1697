package world

import "github.com/maxsupermanhd/RegionTiles/primitives"

// BlockFlags describe how a block type is colorized.
type BlockFlags uint8

const (
	BlockOpaque BlockFlags = 1 << iota
	BlockGrass
	BlockFoliage
	BlockBirch
	BlockSpruce
	BlockWater
)

func (f BlockFlags) Has(o BlockFlags) bool {
	return f&o == o
}

// BlockType is the visible surface block of one column.
// The zero value means the column has no block.
type BlockType struct {
	Flags BlockFlags
	Color [3]uint8
	// block light level in front of the surface block, 0-15
	Light uint8
}

func (b BlockType) IsZero() bool {
	return b == BlockType{}
}

// Biome is a namespaced biome name such as minecraft:plains.
// The empty biome is valid and means the biome is unknown.
type Biome string

type (
	BlockArray [primitives.ChunkColumns]BlockType
	BiomeArray [primitives.ChunkColumns]uint16
	DepthArray [primitives.ChunkColumns]int32
)

// ColumnIndex addresses a column of a 16x16 layer.
func ColumnIndex(x, z int) int {
	return z*primitives.BlocksPerChunk + x
}

// ChunkLayers is the per column surface data of one decoded chunk.
type ChunkLayers struct {
	Blocks BlockArray
	Biomes [primitives.ChunkColumns]Biome
	Depths DepthArray
}
