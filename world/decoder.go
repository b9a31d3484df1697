package world

import (
	"errors"
	"fmt"

	"github.com/maxsupermanhd/RegionTiles/primitives"
)

// ErrCorrupt marks damaged input. Wrapped by decoders for chunks or
// regions that can not be decoded; such data is skipped, not fatal.
var ErrCorrupt = errors.New("corrupt data")

// Corruptf builds an error wrapping ErrCorrupt.
func Corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}

// Source opens regions of a world.
type Source interface {
	// OpenRegion fails with an error wrapping ErrCorrupt when the region
	// file is unreadable as a region, any other error is an I/O failure.
	OpenRegion(c primitives.TileCoords) (RegionReader, error)
}

// RegionReader decodes chunks of one open region.
type RegionReader interface {
	// ReadChunk returns nil layers and no error for absent chunks.
	ReadChunk(cc primitives.ChunkCoords) (*ChunkLayers, []BlockEntity, error)
	Close() error
}

// SpawnReader is implemented by sources that know the world spawn point.
type SpawnReader interface {
	Spawn() (x, z int32, err error)
}
