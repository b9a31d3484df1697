package world

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/maxsupermanhd/RegionTiles/primitives"
)

// ProcessedChunk is the intermediate representation of a chunk kept
// between processing and rendering. Biome values index the owning
// region's BiomeList.
type ProcessedChunk struct {
	Blocks BlockArray
	Biomes BiomeArray
	Depths DepthArray
}

// ProcessedRegion holds every chunk slot of one region, nil slots are
// absent chunks.
type ProcessedRegion struct {
	BiomeList []Biome
	Chunks    [primitives.RegionChunkSlots]*ProcessedChunk
}

func (r *ProcessedRegion) Chunk(cc primitives.ChunkCoords) *ProcessedChunk {
	return r.Chunks[cc.Index()]
}

func (r *ProcessedRegion) SetChunk(cc primitives.ChunkCoords, c *ProcessedChunk) {
	r.Chunks[cc.Index()] = c
}

// Present counts the chunk slots that hold data.
func (r *ProcessedRegion) Present() int {
	n := 0
	for _, c := range r.Chunks {
		if c != nil {
			n++
		}
	}
	return n
}

// Biome resolves a biome index, the second value is false for indices
// outside of the biome list.
func (r *ProcessedRegion) Biome(i uint16) (Biome, bool) {
	if int(i) >= len(r.BiomeList) {
		return "", false
	}
	return r.BiomeList[i], true
}

// Validate checks that every biome index is resolvable.
func (r *ProcessedRegion) Validate() error {
	for i, c := range r.Chunks {
		if c == nil {
			continue
		}
		for j, b := range c.Biomes {
			if int(b) >= len(r.BiomeList) {
				return fmt.Errorf("chunk %s column %d: biome index %d out of %d", primitives.ChunkAt(i), j, b, len(r.BiomeList))
			}
		}
	}
	return nil
}

// gob can not carry nil elements of pointer arrays, so only present
// slots go on the wire together with their index.
type wireChunk struct {
	Index uint16
	Chunk ProcessedChunk
}

type wireRegion struct {
	BiomeList []Biome
	Chunks    []wireChunk
}

func (r *ProcessedRegion) GobEncode() ([]byte, error) {
	w := wireRegion{BiomeList: r.BiomeList}
	for i, c := range r.Chunks {
		if c != nil {
			w.Chunks = append(w.Chunks, wireChunk{Index: uint16(i), Chunk: *c})
		}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *ProcessedRegion) GobDecode(data []byte) error {
	var w wireRegion
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	*r = ProcessedRegion{BiomeList: w.BiomeList}
	for _, wc := range w.Chunks {
		if int(wc.Index) >= primitives.RegionChunkSlots {
			return fmt.Errorf("chunk index %d out of range", wc.Index)
		}
		c := wc.Chunk
		r.Chunks[wc.Index] = &c
	}
	return r.Validate()
}
