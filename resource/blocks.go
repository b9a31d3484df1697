package resource

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/maxsupermanhd/RegionTiles/world"
)

//go:embed data/blocks.json
var defaultBlocksJSON []byte

type jsonColor struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// blockInfo is one entry of a block color table as produced by the
// colorgen tool.
type blockInfo struct {
	Color        jsonColor `json:"color"`
	Opaque       bool      `json:"opaque"`
	Grass        bool      `json:"grass"`
	Foliage      bool      `json:"foliage"`
	Birch        bool      `json:"birch"`
	Spruce       bool      `json:"spruce"`
	Water        bool      `json:"water"`
	SignMaterial *string   `json:"sign_material"`
}

func (i blockInfo) blockType() world.BlockType {
	var f world.BlockFlags
	if i.Opaque {
		f |= world.BlockOpaque
	}
	if i.Grass {
		f |= world.BlockGrass
	}
	if i.Foliage {
		f |= world.BlockFoliage
	}
	if i.Birch {
		f |= world.BlockBirch
	}
	if i.Spruce {
		f |= world.BlockSpruce
	}
	if i.Water {
		f |= world.BlockWater
	}
	return world.BlockType{
		Flags: f,
		Color: [3]uint8{colorByte(i.Color.R), colorByte(i.Color.G), colorByte(i.Color.B)},
	}
}

func colorByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// BlockTable maps block names to their surface appearance.
type BlockTable struct {
	types         map[string]world.BlockType
	signMaterials map[string]string
}

func LoadBlockTable(r io.Reader) (*BlockTable, error) {
	raw := map[string]blockInfo{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding block table: %w", err)
	}
	t := &BlockTable{
		types:         make(map[string]world.BlockType, len(raw)),
		signMaterials: map[string]string{},
	}
	for name, info := range raw {
		name = trimNamespace(name)
		t.types[name] = info.blockType()
		if info.SignMaterial != nil {
			t.signMaterials[name] = *info.SignMaterial
		}
	}
	return t, nil
}

var defaultBlocks = sync.OnceValue(func() *BlockTable {
	t, err := LoadBlockTable(bytes.NewReader(defaultBlocksJSON))
	if err != nil {
		panic(err)
	}
	return t
})

// DefaultBlockTable is the block table built into the binary.
func DefaultBlockTable() *BlockTable {
	return defaultBlocks()
}

func trimNamespace(name string) string {
	return strings.TrimPrefix(name, "minecraft:")
}

// Lookup accepts names with or without the minecraft: namespace.
func (t *BlockTable) Lookup(name string) (world.BlockType, bool) {
	b, ok := t.types[trimNamespace(name)]
	return b, ok
}

// Visible tells if a block stops the downward surface scan.
func Visible(b world.BlockType) bool {
	return b.Flags.Has(world.BlockOpaque) || b.Flags.Has(world.BlockWater)
}

func (t *BlockTable) SignMaterial(name string) (string, bool) {
	m, ok := t.signMaterials[trimNamespace(name)]
	return m, ok
}

func (t *BlockTable) Len() int {
	return len(t.types)
}
