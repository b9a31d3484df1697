package storage

import (
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/world"
)

func TestBlobRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "r.1.-2.bin")
	ts := time.Date(2024, 3, 1, 12, 30, 0, 123456789, time.UTC)
	meta := primitives.FileMeta{Version: 7, Timestamp: ts}

	r := &world.ProcessedRegion{BiomeList: []world.Biome{"minecraft:plains"}}
	c := &world.ProcessedChunk{}
	c.Depths[5] = 70
	r.SetChunk(primitives.ChunkCoords{X: 3, Z: 4}, c)
	require.NoError(t, WriteBlob(path, meta, r))

	got, ok, err := ReadBlobMeta(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, meta.Version, got.Version)
	assert.True(t, ts.Equal(got.Timestamp))

	var loaded world.ProcessedRegion
	_, err = ReadBlob(path, 7, &loaded)
	require.NoError(t, err)
	require.NotNil(t, loaded.Chunk(primitives.ChunkCoords{X: 3, Z: 4}))
	assert.Equal(t, int32(70), loaded.Chunk(primitives.ChunkCoords{X: 3, Z: 4}).Depths[5])
	assert.Equal(t, 1, loaded.Present())

	_, err = ReadBlob(path, 8, &loaded)
	assert.True(t, errors.Is(err, ErrVersionMismatch))
}

func TestBlobDeterministic(t *testing.T) {
	dir := t.TempDir()
	meta := primitives.FileMeta{Version: 0, Timestamp: time.Unix(1700000000, 0).UTC()}
	e := &world.ProcessedEntities{BlockEntities: []world.BlockEntity{{Type: world.BlockEntitySign, X: 1, Y: 2, Z: 3, Sign: &world.Sign{Material: "oak"}}}}
	require.NoError(t, WriteBlob(filepath.Join(dir, "a.bin"), meta, e))
	require.NoError(t, WriteBlob(filepath.Join(dir, "b.bin"), meta, e))
	a, err := os.ReadFile(filepath.Join(dir, "a.bin"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir, "b.bin"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMissingArtifacts(t *testing.T) {
	dir := t.TempDir()
	_, ok, err := ReadBlobMeta(filepath.Join(dir, "nope.bin"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ReadTileMeta(filepath.Join(dir, "nope.png"))
	require.NoError(t, err)
	assert.False(t, ok)

	img, err := ReadTile(filepath.Join(dir, "nope.png"))
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestTileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map", "0", "r.0.0.png")
	img := image.NewRGBA(image.Rect(0, 0, 512, 512))
	img.SetRGBA(5, 6, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	meta := primitives.FileMeta{Version: 1, Timestamp: time.Unix(1600000000, 0).UTC()}
	require.NoError(t, WriteTile(path, meta, img))

	got, ok, err := ReadTileMeta(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, meta.Version, got.Version)
	assert.True(t, meta.Timestamp.Equal(got.Timestamp))

	loaded, err := ReadTile(path)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), loaded.Bounds())
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, loaded.RGBAAt(5, 6))
	assert.Equal(t, color.RGBA{}, loaded.RGBAAt(0, 0))

	// sidecar without image is not a valid tile
	require.NoError(t, os.Remove(path))
	_, ok, err = ReadTileMeta(path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteAtomicFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	err := WriteAtomic(path, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return errors.New("boom")
	})
	require.Error(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStageCommitAndDiscard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "info.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	write := func(w io.Writer) error {
		_, err := w.Write([]byte("new"))
		return err
	}

	s, err := Stage(path, write)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(b), "staging leaves the target alone")
	s.Discard()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	s, err = Stage(path, write)
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(b))
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
