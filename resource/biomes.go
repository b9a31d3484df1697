package resource

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/maxsupermanhd/RegionTiles/world"
)

//go:embed data/biomes.json
var defaultBiomesJSON []byte

type GrassModifier string

const (
	GrassModifierNone       GrassModifier = ""
	GrassModifierDarkForest GrassModifier = "dark_forest"
	GrassModifierSwamp      GrassModifier = "swamp"
)

// BiomeInfo holds the climate and color overrides of a biome.
type BiomeInfo struct {
	Temp          float32       `json:"temp"`
	Downfall      float32       `json:"downfall"`
	WaterColor    *[3]uint8     `json:"water_color,omitempty"`
	GrassColor    *[3]uint8     `json:"grass_color,omitempty"`
	FoliageColor  *[3]uint8     `json:"foliage_color,omitempty"`
	GrassModifier GrassModifier `json:"grass_modifier,omitempty"`
}

// plains climate, used for unknown biomes
var fallbackBiome = BiomeInfo{Temp: 0.8, Downfall: 0.4}

type BiomeTable struct {
	biomes map[string]BiomeInfo
}

func LoadBiomeTable(r io.Reader) (*BiomeTable, error) {
	raw := map[string]BiomeInfo{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding biome table: %w", err)
	}
	t := &BiomeTable{biomes: make(map[string]BiomeInfo, len(raw))}
	for name, info := range raw {
		switch info.GrassModifier {
		case GrassModifierNone, GrassModifierDarkForest, GrassModifierSwamp:
		default:
			return nil, fmt.Errorf("biome %q: unknown grass modifier %q", name, info.GrassModifier)
		}
		t.biomes[trimNamespace(name)] = info
	}
	return t, nil
}

var defaultBiomes = sync.OnceValue(func() *BiomeTable {
	t, err := LoadBiomeTable(bytes.NewReader(defaultBiomesJSON))
	if err != nil {
		panic(err)
	}
	return t
})

func DefaultBiomeTable() *BiomeTable {
	return defaultBiomes()
}

// Lookup falls back to plains for unknown and empty biomes, the second
// value tells whether the biome was known.
func (t *BiomeTable) Lookup(b world.Biome) (BiomeInfo, bool) {
	info, ok := t.biomes[trimNamespace(string(b))]
	if !ok {
		return fallbackBiome, false
	}
	return info, true
}

func (t *BiomeTable) Len() int {
	return len(t.biomes)
}
