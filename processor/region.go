package processor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/willf/bitset"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/world"
)

// RegionResult is everything decoded from one region in a single pass.
type RegionResult struct {
	Region *world.ProcessedRegion
	// block entities of every decoded chunk, unfiltered
	Entities []world.BlockEntity
	// chunk slots holding data, by ChunkCoords.Index
	Present *bitset.BitSet
	// chunk decode failures, nil when there were none
	Corrupt *multierror.Error
}

func (r *RegionResult) CorruptChunks() int {
	if r.Corrupt == nil {
		return 0
	}
	return len(r.Corrupt.Errors)
}

// biomeInterner assigns indices to biomes in first seen order.
type biomeInterner struct {
	list  []world.Biome
	index map[world.Biome]uint16
}

func newBiomeInterner() *biomeInterner {
	return &biomeInterner{index: map[world.Biome]uint16{}}
}

func (b *biomeInterner) intern(biome world.Biome) (uint16, error) {
	if i, ok := b.index[biome]; ok {
		return i, nil
	}
	if len(b.list) > math.MaxUint16 {
		return 0, fmt.Errorf("more than %d distinct biomes", math.MaxUint16+1)
	}
	i := uint16(len(b.list))
	b.list = append(b.list, biome)
	b.index[biome] = i
	return i, nil
}

// ProcessRegion decodes every chunk slot of a region in index order.
// Corrupt chunks are recorded and left absent, any other decode error
// aborts the region.
func ProcessRegion(ctx context.Context, rr world.RegionReader) (*RegionResult, error) {
	res := &RegionResult{
		Region:  &world.ProcessedRegion{},
		Present: bitset.New(primitives.RegionChunkSlots),
	}
	biomes := newBiomeInterner()
	for cz := 0; cz < primitives.ChunksPerRegion; cz++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for cx := 0; cx < primitives.ChunksPerRegion; cx++ {
			cc := primitives.ChunkCoords{X: uint8(cx), Z: uint8(cz)}
			layers, entities, err := rr.ReadChunk(cc)
			if err != nil {
				if errors.Is(err, world.ErrCorrupt) {
					res.Corrupt = multierror.Append(res.Corrupt, fmt.Errorf("chunk %s: %w", cc, err))
					continue
				}
				return nil, fmt.Errorf("chunk %s: %w", cc, err)
			}
			if layers == nil {
				continue
			}
			chunk := &world.ProcessedChunk{
				Blocks: layers.Blocks,
				Depths: layers.Depths,
			}
			for i, b := range layers.Biomes {
				chunk.Biomes[i], err = biomes.intern(b)
				if err != nil {
					return nil, fmt.Errorf("chunk %s: %w", cc, err)
				}
			}
			res.Region.SetChunk(cc, chunk)
			res.Present.Set(uint(cc.Index()))
			res.Entities = append(res.Entities, entities...)
		}
	}
	res.Region.BiomeList = biomes.list
	return res, nil
}
