package primitives

import "fmt"

const (
	BlocksPerChunk   = 16
	ChunksPerRegion  = 32
	BlocksPerRegion  = BlocksPerChunk * ChunksPerRegion
	ChunkColumns     = BlocksPerChunk * BlocksPerChunk
	RegionChunkSlots = ChunksPerRegion * ChunksPerRegion
)

// TileCoords identifies one region and the base tile rendered from it.
// At higher mipmap levels the same type addresses the coarser tiles.
type TileCoords struct {
	X, Z int32
}

func (c TileCoords) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Z)
}

// Less orders coordinates by z first, then x.
func (c TileCoords) Less(o TileCoords) bool {
	if c.Z != o.Z {
		return c.Z < o.Z
	}
	return c.X < o.X
}

// Parent returns the coordinates of the tile one mipmap level up that
// covers c. Division rounds towards negative infinity.
func (c TileCoords) Parent() TileCoords {
	return TileCoords{X: c.X >> 1, Z: c.Z >> 1}
}

// Quadrant returns the position of c inside its parent tile, each
// component being 0 or 1.
func (c TileCoords) Quadrant() (int, int) {
	return int(c.X & 1), int(c.Z & 1)
}

// ChunkCoords addresses a chunk slot inside a region.
type ChunkCoords struct {
	X, Z uint8
}

func (c ChunkCoords) Index() int {
	return int(c.Z)*ChunksPerRegion + int(c.X)
}

func (c ChunkCoords) String() string {
	return fmt.Sprintf("%d:%d", c.X, c.Z)
}

// ChunkAt is the inverse of ChunkCoords.Index.
func ChunkAt(index int) ChunkCoords {
	return ChunkCoords{X: uint8(index % ChunksPerRegion), Z: uint8(index / ChunksPerRegion)}
}

// TileKind selects the map layer a tile belongs to.
type TileKind int

const (
	TileKindMap TileKind = iota
	TileKindLightmap
)

var TileKinds = []TileKind{TileKindMap, TileKindLightmap}

func (k TileKind) String() string {
	switch k {
	case TileKindMap:
		return "map"
	case TileKindLightmap:
		return "light"
	default:
		return fmt.Sprintf("tilekind(%d)", int(k))
	}
}
