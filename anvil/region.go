package anvil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/resource"
	"github.com/maxsupermanhd/RegionTiles/world"
)

const (
	sectorSize   = 4096
	headerSize   = 2 * sectorSize
	chunkHdrSize = 5
)

type compressionType byte

const (
	compressionGzip compressionType = 1
	compressionZlib compressionType = 2
	compressionNone compressionType = 3
	compressionLZ4  compressionType = 4
	// flag for chunks stored in external .mcc files
	compressionExternal compressionType = 128
)

// Source reads region files of one world directory.
type Source struct {
	Paths  primitives.Paths
	Blocks *resource.BlockTable
	Logger *log.Logger

	unknownLock sync.Mutex
	unknown     map[string]int
}

func NewSource(paths primitives.Paths, blocks *resource.BlockTable, logger *log.Logger) *Source {
	if blocks == nil {
		blocks = resource.DefaultBlockTable()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Source{
		Paths:   paths,
		Blocks:  blocks,
		Logger:  logger,
		unknown: map[string]int{},
	}
}

func (s *Source) noteUnknown(names map[string]int) {
	if len(names) == 0 {
		return
	}
	s.unknownLock.Lock()
	defer s.unknownLock.Unlock()
	for n, c := range names {
		if _, seen := s.unknown[n]; !seen {
			s.Logger.Printf("Unknown block [%s], add it to the block table to have it drawn", n)
		}
		s.unknown[n] += c
	}
}

// UnknownBlocks lists block names missing from the block table that
// were skipped so far, sorted.
func (s *Source) UnknownBlocks() []string {
	s.unknownLock.Lock()
	defer s.unknownLock.Unlock()
	ret := make([]string, 0, len(s.unknown))
	for n := range s.unknown {
		ret = append(ret, n)
	}
	sort.Strings(ret)
	return ret
}

// OpenRegion opens a region file read only and loads its sector table.
func (s *Source) OpenRegion(c primitives.TileCoords) (world.RegionReader, error) {
	path := s.Paths.RegionPath(c)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	r := &regionReader{
		source: s,
		file:   f,
		size:   st.Size(),
		coords: c,
	}
	// freshly created regions may be empty files
	if r.size == 0 {
		return r, nil
	}
	if r.size < headerSize {
		f.Close()
		return nil, world.Corruptf("region %s: header truncated to %d bytes", c, r.size)
	}
	var hdr [sectorSize]byte
	if _, err := f.ReadAt(hdr[:], 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	if err := binary.Read(bytes.NewReader(hdr[:]), binary.BigEndian, r.offsets[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("parsing header of %s: %w", path, err)
	}
	return r, nil
}

type regionReader struct {
	source  *Source
	file    *os.File
	size    int64
	coords  primitives.TileCoords
	offsets [primitives.RegionChunkSlots]uint32
}

func (r *regionReader) Close() error {
	return r.file.Close()
}

// rawChunk returns the uncompressed NBT of a chunk or nil when the slot
// is empty.
func (r *regionReader) rawChunk(cc primitives.ChunkCoords) ([]byte, error) {
	offset := r.offsets[cc.Index()]
	sector := int64(offset >> 8)
	count := int64(offset & 0xff)
	if offset == 0 {
		return nil, nil
	}
	if sector < headerSize/sectorSize || count == 0 {
		return nil, world.Corruptf("invalid sector entry %d+%d", sector, count)
	}
	if sector*sectorSize >= r.size {
		return nil, world.Corruptf("sector %d is past the end of file", sector)
	}
	buf := make([]byte, count*sectorSize)
	n, err := r.file.ReadAt(buf, sector*sectorSize)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
		buf = buf[:n]
	}
	if len(buf) < chunkHdrSize {
		return nil, world.Corruptf("chunk header truncated")
	}
	length := int64(int32(binary.BigEndian.Uint32(buf)))
	if length < 1 || length > int64(len(buf)-4) {
		return nil, world.Corruptf("invalid chunk length %d", length)
	}
	compression := compressionType(buf[4])
	stream := bytes.NewReader(buf[chunkHdrSize : 4+length])
	var rd io.Reader
	switch compression {
	case compressionGzip:
		gr, err := gzip.NewReader(stream)
		if err != nil {
			return nil, world.Corruptf("gzip: %v", err)
		}
		defer gr.Close()
		rd = gr
	case compressionZlib:
		zr, err := zlib.NewReader(stream)
		if err != nil {
			return nil, world.Corruptf("zlib: %v", err)
		}
		defer zr.Close()
		rd = zr
	case compressionNone:
		rd = stream
	case compressionLZ4:
		return nil, world.Corruptf("lz4 compressed chunks are not supported")
	default:
		if compression&compressionExternal != 0 {
			return nil, world.Corruptf("externally stored chunks are not supported")
		}
		return nil, world.Corruptf("unknown compression %d", compression)
	}
	raw, err := io.ReadAll(rd)
	if err != nil {
		return nil, world.Corruptf("decompressing: %v", err)
	}
	return raw, nil
}

func (r *regionReader) ReadChunk(cc primitives.ChunkCoords) (*world.ChunkLayers, []world.BlockEntity, error) {
	if r.size == 0 {
		return nil, nil, nil
	}
	raw, err := r.rawChunk(cc)
	if err != nil || raw == nil {
		return nil, nil, err
	}
	d := &chunkDecoder{blocks: r.source.Blocks}
	layers, err := d.decode(raw)
	r.source.noteUnknown(d.unknown)
	if err != nil || layers == nil {
		return nil, nil, err
	}
	entities, err := d.blockEntities(raw)
	if err != nil {
		return nil, nil, err
	}
	return layers, entities, nil
}
