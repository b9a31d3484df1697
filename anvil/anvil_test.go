package anvil

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/world"
)

type testState struct {
	Name string `nbt:"Name"`
}

type testSection struct {
	Y           int8 `nbt:"Y"`
	BlockStates struct {
		Palette []testState `nbt:"palette"`
		Data    []uint64    `nbt:"data"`
	} `nbt:"block_states"`
	Biomes struct {
		Palette []string `nbt:"palette"`
		Data    []uint64 `nbt:"data"`
	} `nbt:"biomes"`
	BlockLight []byte `nbt:"BlockLight"`
}

type testChunk[E any] struct {
	DataVersion   int32         `nbt:"DataVersion"`
	Status        string        `nbt:"Status"`
	Sections      []testSection `nbt:"sections"`
	BlockEntities []E           `nbt:"block_entities"`
}

type legacySign struct {
	ID    string `nbt:"id"`
	X     int32  `nbt:"x"`
	Y     int32  `nbt:"y"`
	Z     int32  `nbt:"z"`
	Text1 string `nbt:"Text1"`
	Text2 string `nbt:"Text2"`
	Text3 string `nbt:"Text3"`
	Text4 string `nbt:"Text4"`
	Color string `nbt:"Color"`
}

type signSide struct {
	Messages []string `nbt:"messages"`
	Color    string   `nbt:"color"`
}

type modernSign struct {
	ID        string   `nbt:"id"`
	X         int32    `nbt:"x"`
	Y         int32    `nbt:"y"`
	Z         int32    `nbt:"z"`
	FrontText signSide `nbt:"front_text"`
	BackText  signSide `nbt:"back_text"`
}

func packLongs(bitsPer int, values []int) []uint64 {
	perLong := 64 / bitsPer
	out := make([]uint64, (len(values)+perLong-1)/perLong)
	for i, v := range values {
		out[i/perLong] |= uint64(v) << ((i % perLong) * bitsPer)
	}
	return out
}

const (
	palAir = iota
	palStone
	palGrass
	palWater
	palSign
	palMystery
)

// surfaceSections builds a chunk with a stone floor at y 63, a few
// columns with blocks above it and an oak sign at local (3, 70, 2).
func surfaceSections() []testSection {
	var top testSection
	top.Y = 4
	for _, n := range []string{"minecraft:air", "minecraft:stone", "minecraft:grass_block", "minecraft:water", "minecraft:oak_sign", "minecraft:mystery"} {
		top.BlockStates.Palette = append(top.BlockStates.Palette, testState{Name: n})
	}
	blocks := make([]int, 4096)
	blocks[blockIndex(0, 2, 0)] = palGrass
	blocks[blockIndex(1, 0, 0)] = palWater
	blocks[blockIndex(2, 5, 0)] = palMystery
	blocks[blockIndex(2, 1, 0)] = palStone
	blocks[blockIndex(3, 6, 2)] = palSign
	top.BlockStates.Data = packLongs(4, blocks)
	top.Biomes.Palette = []string{"minecraft:plains"}
	top.BlockLight = make([]byte, 2048)
	// light 12 above the grass block at (0, 2, 0)
	top.BlockLight[blockIndex(0, 3, 0)>>1] = 12

	var floor testSection
	floor.Y = 3
	floor.BlockStates.Palette = []testState{{Name: "minecraft:stone"}}
	floor.Biomes.Palette = []string{"minecraft:desert", "minecraft:river"}
	biomes := make([]int, 64)
	for y := 0; y < 4; y++ {
		for z := 0; z < 4; z++ {
			biomes[y*16+z*4+3] = 1
		}
	}
	floor.Biomes.Data = packLongs(1, biomes)
	floor.BlockLight = make([]byte, 2048)
	return []testSection{top, floor}
}

func marshalChunk(t *testing.T, v any) []byte {
	t.Helper()
	b, err := nbt.Marshal(v)
	require.NoError(t, err)
	return b
}

func zlibbed(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteByte(byte(compressionZlib))
	w := zlib.NewWriter(&buf)
	_, err := w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func gzipped(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteByte(byte(compressionGzip))
	w := gzip.NewWriter(&buf)
	_, err := w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// writeRegion lays out chunk payloads (compression byte followed by
// data) in sector format.
func writeRegion(t *testing.T, path string, chunks map[primitives.ChunkCoords][]byte) {
	t.Helper()
	var header [headerSize]byte
	var body bytes.Buffer
	sector := headerSize / sectorSize
	for i := 0; i < primitives.RegionChunkSlots; i++ {
		payload, ok := chunks[primitives.ChunkAt(i)]
		if !ok {
			continue
		}
		var c bytes.Buffer
		binary.Write(&c, binary.BigEndian, int32(len(payload)))
		c.Write(payload)
		count := (c.Len() + sectorSize - 1) / sectorSize
		c.Write(make([]byte, count*sectorSize-c.Len()))
		binary.BigEndian.PutUint32(header[i*4:], uint32(sector<<8|count))
		body.Write(c.Bytes())
		sector += count
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, append(header[:], body.Bytes()...), 0644))
}

func newTestSource(t *testing.T) (*Source, primitives.Paths) {
	paths := primitives.Paths{InputDir: t.TempDir(), OutputDir: t.TempDir()}
	return NewSource(paths, nil, nil), paths
}

func TestReadChunkSurface(t *testing.T) {
	src, paths := newTestSource(t)
	chunk := testChunk[modernSign]{DataVersion: 3465, Status: "minecraft:full", Sections: surfaceSections()}
	writeRegion(t, paths.RegionPath(primitives.TileCoords{}), map[primitives.ChunkCoords][]byte{
		{X: 2, Z: 3}: zlibbed(t, marshalChunk(t, chunk)),
		{X: 0, Z: 0}: gzipped(t, marshalChunk(t, chunk)),
	})

	rr, err := src.OpenRegion(primitives.TileCoords{})
	require.NoError(t, err)
	defer rr.Close()

	layers, _, err := rr.ReadChunk(primitives.ChunkCoords{X: 5, Z: 5})
	require.NoError(t, err)
	assert.Nil(t, layers)

	for _, cc := range []primitives.ChunkCoords{{X: 2, Z: 3}, {X: 0, Z: 0}} {
		layers, _, err := rr.ReadChunk(cc)
		require.NoError(t, err)
		require.NotNil(t, layers)

		grass := layers.Blocks[world.ColumnIndex(0, 0)]
		assert.True(t, grass.Flags.Has(world.BlockGrass))
		assert.Equal(t, uint8(12), grass.Light)
		assert.Equal(t, int32(66), layers.Depths[world.ColumnIndex(0, 0)])
		assert.Equal(t, world.Biome("minecraft:plains"), layers.Biomes[world.ColumnIndex(0, 0)])

		assert.True(t, layers.Blocks[world.ColumnIndex(1, 0)].Flags.Has(world.BlockWater))
		assert.Equal(t, int32(64), layers.Depths[world.ColumnIndex(1, 0)])

		// unknown block is skipped
		assert.Equal(t, int32(65), layers.Depths[world.ColumnIndex(2, 0)])

		assert.Equal(t, int32(70), layers.Depths[world.ColumnIndex(3, 2)])

		assert.Equal(t, int32(63), layers.Depths[world.ColumnIndex(15, 15)])
		assert.Equal(t, world.Biome("minecraft:river"), layers.Biomes[world.ColumnIndex(15, 15)])
		assert.Equal(t, world.Biome("minecraft:desert"), layers.Biomes[world.ColumnIndex(0, 15)])
		assert.True(t, layers.Blocks[world.ColumnIndex(0, 15)].Flags.Has(world.BlockOpaque))
	}
	assert.Equal(t, []string{"minecraft:mystery"}, src.UnknownBlocks())
}

func TestReadChunkSigns(t *testing.T) {
	src, paths := newTestSource(t)
	modern := testChunk[modernSign]{DataVersion: 3700, Status: "minecraft:full", Sections: surfaceSections(),
		BlockEntities: []modernSign{{
			ID: "minecraft:sign", X: 35, Y: 70, Z: 50,
			FrontText: signSide{Messages: []string{`{"text":"Wel","color":"red","extra":[{"text":"come","bold":true}]}`, `"home"`, `""`, `""`}, Color: "black"},
			BackText:  signSide{Messages: []string{`""`, `""`, `""`, `"back"`}, Color: "blue"},
		}, {
			ID: "minecraft:chest", X: 33, Y: 64, Z: 49,
		}},
	}
	legacy := testChunk[legacySign]{DataVersion: 3120, Sections: surfaceSections(),
		BlockEntities: []legacySign{{
			ID: "minecraft:hanging_sign", X: -5, Y: 80, Z: 7,
			Text1: `{"text":"Shop"}`, Text2: `not json`, Text3: `""`, Text4: `""`, Color: "green",
		}},
	}
	writeRegion(t, paths.RegionPath(primitives.TileCoords{}), map[primitives.ChunkCoords][]byte{
		{X: 2, Z: 3}: zlibbed(t, marshalChunk(t, modern)),
		{X: 9, Z: 1}: zlibbed(t, marshalChunk(t, legacy)),
	})
	rr, err := src.OpenRegion(primitives.TileCoords{})
	require.NoError(t, err)
	defer rr.Close()

	_, entities, err := rr.ReadChunk(primitives.ChunkCoords{X: 2, Z: 3})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	e := entities[0]
	assert.Equal(t, world.BlockEntitySign, e.Type)
	assert.Equal(t, [3]int32{35, 70, 50}, [3]int32{e.X, e.Y, e.Z})
	require.NotNil(t, e.Sign)
	assert.Equal(t, "oak", e.Sign.Material)
	assert.Equal(t, world.TextLine{{Text: "Wel", Color: "red"}, {Text: "come", Color: "red", Bold: true}}, e.Sign.FrontText[0])
	assert.Equal(t, world.TextLine{{Text: "home", Color: "black"}}, e.Sign.FrontText[1])
	assert.Equal(t, "Welcome\nhome\n\n\n\nback", e.Sign.DisplayText())
	assert.Equal(t, "blue", e.Sign.BackText[3][0].Color)

	_, entities, err = rr.ReadChunk(primitives.ChunkCoords{X: 9, Z: 1})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	e = entities[0]
	assert.Equal(t, world.BlockEntityHangingSign, e.Type)
	assert.Equal(t, "", e.Sign.Material, "no sign block at the entity position")
	assert.Equal(t, "Shop\nnot json", e.Sign.DisplayText())
	assert.Equal(t, "green", e.Sign.FrontText[0][0].Color)
}

func TestReadChunkCorrupt(t *testing.T) {
	src, paths := newTestSource(t)
	old := testChunk[modernSign]{DataVersion: 1343, Sections: surfaceSections()}
	proto := testChunk[modernSign]{DataVersion: 3465, Status: "minecraft:noise", Sections: surfaceSections()}
	broken := surfaceSections()
	broken[0].BlockStates.Data = broken[0].BlockStates.Data[:10]
	short := testChunk[modernSign]{DataVersion: 3465, Sections: broken}

	writeRegion(t, paths.RegionPath(primitives.TileCoords{X: -1, Z: 2}), map[primitives.ChunkCoords][]byte{
		{X: 0, Z: 0}: append([]byte{byte(compressionLZ4)}, 1, 2, 3),
		{X: 1, Z: 0}: append([]byte{byte(compressionZlib)}, 1, 2, 3),
		{X: 2, Z: 0}: zlibbed(t, marshalChunk(t, old)),
		{X: 3, Z: 0}: zlibbed(t, marshalChunk(t, proto)),
		{X: 4, Z: 0}: zlibbed(t, marshalChunk(t, short)),
		{X: 5, Z: 0}: append([]byte{byte(compressionNone)}, marshalChunk(t, proto)...),
	})
	rr, err := src.OpenRegion(primitives.TileCoords{X: -1, Z: 2})
	require.NoError(t, err)
	defer rr.Close()

	for _, x := range []uint8{0, 1, 2, 4} {
		_, _, err := rr.ReadChunk(primitives.ChunkCoords{X: x, Z: 0})
		assert.True(t, world.IsCorrupt(err), "chunk %d: %v", x, err)
	}
	for _, x := range []uint8{3, 5} {
		layers, _, err := rr.ReadChunk(primitives.ChunkCoords{X: x, Z: 0})
		assert.NoError(t, err)
		assert.Nil(t, layers, "unfinished chunk %d", x)
	}
}

func TestOpenRegionFiles(t *testing.T) {
	src, paths := newTestSource(t)
	require.NoError(t, os.MkdirAll(paths.RegionDir(), 0755))

	require.NoError(t, os.WriteFile(paths.RegionPath(primitives.TileCoords{X: 1}), nil, 0644))
	rr, err := src.OpenRegion(primitives.TileCoords{X: 1})
	require.NoError(t, err)
	layers, _, err := rr.ReadChunk(primitives.ChunkCoords{})
	assert.NoError(t, err)
	assert.Nil(t, layers)
	require.NoError(t, rr.Close())

	require.NoError(t, os.WriteFile(paths.RegionPath(primitives.TileCoords{X: 2}), make([]byte, 100), 0644))
	_, err = src.OpenRegion(primitives.TileCoords{X: 2})
	assert.True(t, world.IsCorrupt(err))

	_, err = src.OpenRegion(primitives.TileCoords{X: 3})
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, world.IsCorrupt(err))
}

func TestParseTextComponent(t *testing.T) {
	assert.Equal(t, world.TextLine{}, ParseTextComponent("", ""))
	assert.Equal(t, world.TextLine{{Text: "plain"}}, ParseTextComponent(`"plain"`, ""))
	assert.Equal(t, world.TextLine{{Text: "a", Italic: true}, {Text: "b", Color: "gold", Italic: true}},
		ParseTextComponent(`[{"text":"a","italic":true,"extra":[{"text":"b","color":"gold"}]}]`, ""))
	assert.Equal(t, world.TextLine{{Text: "{broken", Color: "white"}}, ParseTextComponent(`{broken`, "white"))
}

type testLevel struct {
	Data struct {
		LevelName string `nbt:"LevelName"`
		SpawnX    int32  `nbt:"SpawnX"`
		SpawnY    int32  `nbt:"SpawnY"`
		SpawnZ    int32  `nbt:"SpawnZ"`
	} `nbt:"Data"`
}

func TestSpawn(t *testing.T) {
	src, paths := newTestSource(t)
	_, _, err := src.Spawn()
	assert.ErrorIs(t, err, os.ErrNotExist)

	var l testLevel
	l.Data.LevelName = "test"
	l.Data.SpawnX, l.Data.SpawnY, l.Data.SpawnZ = 100, 70, -20
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err = w.Write(marshalChunk(t, l))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(paths.LevelDatPath(), buf.Bytes(), 0644))

	x, z, err := src.Spawn()
	require.NoError(t, err)
	assert.Equal(t, int32(100), x)
	assert.Equal(t, int32(-20), z)
}
