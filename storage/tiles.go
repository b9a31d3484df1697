package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"

	"github.com/maxsupermanhd/RegionTiles/primitives"
)

const metaSuffix = ".meta"

// MetaPath is the sidecar file holding the artifact meta of a tile.
func MetaPath(tilePath string) string {
	return tilePath + metaSuffix
}

var tileEncoder = png.Encoder{CompressionLevel: png.DefaultCompression}

// WriteTile stores the image and then its sidecar meta. A tile without a
// sidecar is never considered valid, so a crash in between only costs a
// rerender.
func WriteTile(path string, meta primitives.FileMeta, img image.Image) error {
	err := WriteAtomic(path, func(w io.Writer) error {
		return tileEncoder.Encode(w, img)
	})
	if err != nil {
		return err
	}
	return WriteAtomic(MetaPath(path), func(w io.Writer) error {
		return json.NewEncoder(w).Encode(meta)
	})
}

// ReadTileMeta returns the sidecar meta of a tile. The second value is
// false when either the tile or its sidecar is missing.
func ReadTileMeta(path string) (primitives.FileMeta, bool, error) {
	var meta primitives.FileMeta
	b, err := os.ReadFile(MetaPath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return meta, false, nil
		}
		return meta, false, err
	}
	if err := json.Unmarshal(b, &meta); err != nil {
		return meta, false, fmt.Errorf("decoding %s: %w", MetaPath(path), err)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return meta, false, nil
		}
		return meta, false, err
	}
	return meta, true, nil
}

// ReadTile loads a tile image. Missing tiles yield a nil image and no
// error.
func ReadTile(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba, nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst, nil
}
