package storage

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/maxsupermanhd/RegionTiles/primitives"
)

// ErrVersionMismatch is returned when a stored artifact was written by a
// different format version than the one requested.
var ErrVersionMismatch = errors.New("artifact version mismatch")

// WriteBlob stores v as a zstd stream holding a JSON header line with
// the artifact meta followed by the gob encoded payload.
func WriteBlob(path string, meta primitives.FileMeta, v any) error {
	return WriteAtomic(path, func(w io.Writer) error {
		enc, err := zstd.NewWriter(w,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1))
		if err != nil {
			return err
		}
		bw := bufio.NewWriterSize(enc, 256*1024)
		hb, err := json.Marshal(meta)
		if err != nil {
			enc.Close()
			return err
		}
		if _, err := bw.Write(append(hb, '\n')); err != nil {
			enc.Close()
			return err
		}
		if err := gob.NewEncoder(bw).Encode(v); err != nil {
			enc.Close()
			return fmt.Errorf("gob encode: %w", err)
		}
		if err := bw.Flush(); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	})
}

type blobReader struct {
	f   *os.File
	dec *zstd.Decoder
	br  *bufio.Reader
}

func openBlob(path string) (*blobReader, primitives.FileMeta, error) {
	var meta primitives.FileMeta
	f, err := os.Open(path)
	if err != nil {
		return nil, meta, err
	}
	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		f.Close()
		return nil, meta, err
	}
	r := &blobReader{f: f, dec: dec, br: bufio.NewReaderSize(dec, 256*1024)}
	line, err := r.br.ReadBytes('\n')
	if err != nil {
		r.Close()
		return nil, meta, fmt.Errorf("reading header of %s: %w", path, err)
	}
	if err := json.Unmarshal(line, &meta); err != nil {
		r.Close()
		return nil, meta, fmt.Errorf("decoding header of %s: %w", path, err)
	}
	return r, meta, nil
}

func (r *blobReader) Close() error {
	r.dec.Close()
	return r.f.Close()
}

// ReadBlobMeta reads only the header of a blob. A missing file is not an
// error, the second value reports whether the blob exists.
func ReadBlobMeta(path string) (primitives.FileMeta, bool, error) {
	r, meta, err := openBlob(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return meta, false, nil
		}
		return meta, false, err
	}
	r.Close()
	return meta, true, nil
}

// ReadBlob decodes the payload of a blob into v, which must be a pointer.
// When the stored version differs from want the payload is left untouched
// and an error wrapping ErrVersionMismatch is returned.
func ReadBlob(path string, want primitives.FileMetaVersion, v any) (primitives.FileMeta, error) {
	r, meta, err := openBlob(path)
	if err != nil {
		return meta, err
	}
	defer r.Close()
	if meta.Version != want {
		return meta, fmt.Errorf("%s: stored %d, want %d: %w", path, meta.Version, want, ErrVersionMismatch)
	}
	if err := gob.NewDecoder(r.br).Decode(v); err != nil {
		return meta, fmt.Errorf("gob decode %s: %w", path, err)
	}
	return meta, nil
}
