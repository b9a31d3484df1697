package anvil

import (
	"math/bits"
	"sort"
	"strings"

	"github.com/Tnze/go-mc/level"
	"github.com/Tnze/go-mc/nbt"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/resource"
	"github.com/maxsupermanhd/RegionTiles/world"
)

// first snapshot storing sections at the chunk root
const minDataVersion = 2844

const (
	sectionBlocks = 16 * 16 * 16
	sectionBiomes = 4 * 4 * 4
)

type chunkNBT struct {
	DataVersion int32        `nbt:"DataVersion"`
	Status      string       `nbt:"Status"`
	Sections    []sectionNBT `nbt:"sections"`
}

type sectionNBT struct {
	Y           int8 `nbt:"Y"`
	BlockStates struct {
		Palette []blockStateNBT `nbt:"palette"`
		Data    []uint64        `nbt:"data"`
	} `nbt:"block_states"`
	Biomes struct {
		Palette []string `nbt:"palette"`
		Data    []uint64 `nbt:"data"`
	} `nbt:"biomes"`
	BlockLight []byte `nbt:"BlockLight"`
}

type blockStateNBT struct {
	Name string `nbt:"Name"`
}

// paletted is a palette container of a section, storage is nil for
// single entry palettes.
type paletted struct {
	size    int
	storage *level.BitStorage
}

func newPaletted(paletteLen, minBits, length int, data []uint64) (paletted, error) {
	if paletteLen == 1 {
		return paletted{size: 1}, nil
	}
	b := max(minBits, bits.Len(uint(paletteLen-1)))
	perLong := 64 / b
	if want := (length + perLong - 1) / perLong; len(data) != want {
		return paletted{}, world.Corruptf("palette of %d entries needs %d longs, got %d", paletteLen, want, len(data))
	}
	return paletted{size: paletteLen, storage: level.NewBitStorage(b, length, data)}, nil
}

func (p paletted) get(i int) (int, error) {
	if p.storage == nil {
		return 0, nil
	}
	v := p.storage.Get(i)
	if v >= p.size {
		return 0, world.Corruptf("palette index %d out of %d", v, p.size)
	}
	return v, nil
}

type section struct {
	y      int32
	names  []string
	types  []world.BlockType
	known  []bool
	blocks paletted
	biomes []world.Biome
	bidx   paletted
	light  []byte
}

func blockIndex(x, y, z int) int {
	return y*16*16 + z*16 + x
}

func (s *section) blockAt(x, y, z int) (int, error) {
	return s.blocks.get(blockIndex(x, y, z))
}

func (s *section) biomeAt(x, y, z int) (world.Biome, error) {
	if len(s.biomes) == 0 {
		return "", nil
	}
	i, err := s.bidx.get((y/4)*16 + (z/4)*4 + x/4)
	if err != nil {
		return "", err
	}
	return s.biomes[i], nil
}

func (s *section) lightAt(x, y, z int) uint8 {
	i := blockIndex(x, y, z)
	if len(s.light) != sectionBlocks/2 {
		return 0
	}
	b := s.light[i>>1]
	if i&1 == 1 {
		b >>= 4
	}
	return b & 0x0f
}

type chunkDecoder struct {
	blocks   *resource.BlockTable
	sections []*section
	unknown  map[string]int
}

func (d *chunkDecoder) section(y int32) *section {
	for _, s := range d.sections {
		if s.y == y {
			return s
		}
	}
	return nil
}

func (d *chunkDecoder) addSection(sn *sectionNBT) error {
	s := &section{y: int32(sn.Y), light: sn.BlockLight}
	if n := len(sn.BlockStates.Palette); n > 0 {
		var err error
		s.blocks, err = newPaletted(n, 4, sectionBlocks, sn.BlockStates.Data)
		if err != nil {
			return err
		}
		s.names = make([]string, n)
		s.types = make([]world.BlockType, n)
		s.known = make([]bool, n)
		for i, b := range sn.BlockStates.Palette {
			s.names[i] = b.Name
			s.types[i], s.known[i] = d.blocks.Lookup(b.Name)
		}
	}
	if n := len(sn.Biomes.Palette); n > 0 {
		var err error
		s.bidx, err = newPaletted(n, 0, sectionBiomes, sn.Biomes.Data)
		if err != nil {
			return err
		}
		s.biomes = make([]world.Biome, n)
		for i, b := range sn.Biomes.Palette {
			s.biomes[i] = world.Biome(b)
		}
	}
	d.sections = append(d.sections, s)
	return nil
}

func (d *chunkDecoder) noteUnknown(name string) {
	if d.unknown == nil {
		d.unknown = map[string]int{}
	}
	d.unknown[name]++
}

// lightAbove is the block light of the block over a surface block.
func (d *chunkDecoder) lightAbove(s *section, x, y, z int) uint8 {
	if y < 15 {
		return s.lightAt(x, y+1, z)
	}
	if up := d.section(s.y + 1); up != nil {
		return up.lightAt(x, 0, z)
	}
	return 0
}

// decode builds the surface layers of a chunk. Chunks that did not
// finish generating are reported as absent.
func (d *chunkDecoder) decode(raw []byte) (*world.ChunkLayers, error) {
	var c chunkNBT
	if err := nbt.Unmarshal(raw, &c); err != nil {
		return nil, world.Corruptf("nbt: %v", err)
	}
	if c.DataVersion < minDataVersion {
		return nil, world.Corruptf("unsupported chunk data version %d", c.DataVersion)
	}
	if c.Status != "" && strings.TrimPrefix(c.Status, "minecraft:") != "full" {
		return nil, nil
	}
	for i := range c.Sections {
		if err := d.addSection(&c.Sections[i]); err != nil {
			return nil, err
		}
	}
	sort.Slice(d.sections, func(i, j int) bool {
		return d.sections[i].y > d.sections[j].y
	})

	ret := &world.ChunkLayers{}
	var done [primitives.ChunkColumns]bool
	left := primitives.ChunkColumns
	for _, s := range d.sections {
		if s.names == nil {
			continue
		}
		for y := 15; y >= 0 && left > 0; y-- {
			for z := 0; z < 16; z++ {
				for x := 0; x < 16; x++ {
					col := world.ColumnIndex(x, z)
					if done[col] {
						continue
					}
					pi, err := s.blockAt(x, y, z)
					if err != nil {
						return nil, err
					}
					if !s.known[pi] {
						d.noteUnknown(s.names[pi])
						continue
					}
					bt := s.types[pi]
					if !resource.Visible(bt) {
						continue
					}
					biome, err := s.biomeAt(x, y, z)
					if err != nil {
						return nil, err
					}
					bt.Light = d.lightAbove(s, x, y, z)
					ret.Blocks[col] = bt
					ret.Biomes[col] = biome
					ret.Depths[col] = s.y*16 + int32(y)
					done[col] = true
					left--
				}
			}
		}
	}
	return ret, nil
}

// blockNameAt returns the block name at absolute coordinates inside
// this chunk, empty if there is no such block.
func (d *chunkDecoder) blockNameAt(x, y, z int32) string {
	s := d.section(y >> 4)
	if s == nil || s.names == nil {
		return ""
	}
	pi, err := s.blockAt(int(x&15), int(y&15), int(z&15))
	if err != nil {
		return ""
	}
	return s.names[pi]
}
