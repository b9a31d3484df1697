package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/processor"
	"github.com/maxsupermanhd/RegionTiles/render"
	"github.com/maxsupermanhd/RegionTiles/storage"
	"github.com/maxsupermanhd/RegionTiles/world"
)

// cacheState is the outcome of a cache lookup.
type cacheState struct {
	meta  primitives.FileMeta
	found bool
	valid bool
}

// freshTimestamp is the timestamp recorded for a rebuilt artifact. It
// moves past the previously stored one, so artifacts built from this one
// see the change even when the source itself is unchanged.
func freshTimestamp(source time.Time, prev cacheState) time.Time {
	if prev.found && !source.After(prev.meta.Timestamp) {
		return prev.meta.Timestamp.Add(time.Nanosecond)
	}
	return source
}

// check compares a stored artifact meta against the current version and
// the source timestamp. Unreadable metadata counts as stale.
func (r *run) check(kind primitives.ArtifactKind, path string, source time.Time, read func(string) (primitives.FileMeta, bool, error)) cacheState {
	meta, ok, err := read(path)
	if err != nil {
		r.log.Printf("Unreadable cache meta of %s, regenerating: %v", path, err)
		return cacheState{}
	}
	if !ok {
		return cacheState{}
	}
	return cacheState{meta: meta, found: true, valid: r.Versions.IsValid(kind, meta.Version, source, meta.Timestamp)}
}

func (r *run) regionPass(ctx context.Context, regions []Region) (*primitives.TileCoordMap, error) {
	level0 := primitives.NewTileCoordMap()
	p := newPool(ctx, r.workers)
	for _, reg := range regions {
		p.Go(func(ctx context.Context) error {
			return r.regionUnit(ctx, reg, level0)
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return level0, nil
}

// decode runs the region processor and stores the stale artifacts.
// A nil region with no error means the whole region file is corrupt.
func (r *run) decode(ctx context.Context, reg Region, writeRegion, writeEntities bool) (*world.ProcessedRegion, error) {
	c := reg.Coords
	rr, err := r.Source.OpenRegion(c)
	if err != nil {
		if world.IsCorrupt(err) {
			r.log.Printf("Skipping region %s: %v", c, err)
			r.count.regionsCorrupt.Add(1)
			r.Metrics.region("corrupt")
			return nil, nil
		}
		return nil, fmt.Errorf("opening region %s: %w", c, err)
	}
	res, err := processor.ProcessRegion(ctx, rr)
	rr.Close()
	if err != nil {
		return nil, fmt.Errorf("processing region %s: %w", c, err)
	}
	if n := res.CorruptChunks(); n > 0 {
		r.log.Printf("Region %s: skipped %d corrupt chunks: %v", c, n, res.Corrupt)
		r.count.corruptChunks.Add(int64(n))
		r.Metrics.corrupt(n)
	}
	r.count.regionsProcessed.Add(1)
	r.Metrics.region("processed")

	if writeRegion {
		meta := r.Versions.Meta(primitives.ArtifactRegion, reg.Mtime)
		if err := storage.WriteBlob(r.Paths.ProcessedPath(c), meta, res.Region); err != nil {
			return nil, fmt.Errorf("storing processed region %s: %w", c, err)
		}
	}
	if writeEntities {
		// stored unfiltered, the filter applies when merging
		ents := processor.CollectEntities(res.Entities, nil)
		meta := r.Versions.Meta(primitives.ArtifactEntities, reg.Mtime)
		if err := storage.WriteBlob(r.Paths.EntitiesPath(0, c), meta, ents); err != nil {
			return nil, fmt.Errorf("storing entities of region %s: %w", c, err)
		}
	}
	return res.Region, nil
}

// regionUnit brings the processed data, entities and base tiles of one
// region up to date. The region file is decoded at most once.
func (r *run) regionUnit(ctx context.Context, reg Region, level0 *primitives.TileCoordMap) error {
	c := reg.Coords
	processed := r.check(primitives.ArtifactRegion, r.Paths.ProcessedPath(c), reg.Mtime, storage.ReadBlobMeta)
	entities := r.check(primitives.ArtifactEntities, r.Paths.EntitiesPath(0, c), reg.Mtime, storage.ReadBlobMeta)

	var region *world.ProcessedRegion
	tileSource := reg.Mtime
	if processed.valid {
		tileSource = processed.meta.Timestamp
	}
	if !processed.valid || !entities.valid {
		var err error
		region, err = r.decode(ctx, reg, !processed.valid, !entities.valid)
		if err != nil {
			return err
		}
		if region == nil && !processed.valid {
			return nil
		}
		if processed.valid {
			// only entities were stale, tiles go by the stored data
			region = nil
		}
	}

	var stale []primitives.TileKind
	tiles := map[primitives.TileKind]cacheState{}
	mapExists := false
	for _, kind := range primitives.TileKinds {
		t := r.check(primitives.TileArtifact(kind), r.Paths.TilePath(kind, 0, c), tileSource, storage.ReadTileMeta)
		tiles[kind] = t
		if !t.valid || !processed.valid {
			stale = append(stale, kind)
		} else if kind == primitives.TileKindMap {
			mapExists = true
		}
	}
	if len(stale) == 0 {
		level0.Insert(c)
		if region == nil && processed.valid && entities.valid {
			r.Metrics.region("cached")
		}
		return nil
	}

	if region == nil {
		region = &world.ProcessedRegion{}
		if _, err := storage.ReadBlob(r.Paths.ProcessedPath(c), r.Versions.Get(primitives.ArtifactRegion), region); err != nil {
			return fmt.Errorf("loading processed region %s: %w", c, err)
		}
	}
	tile, ok := render.RenderRegion(region, r.Colorizer)
	if !ok {
		r.log.Printf("Region %s has no chunks, no tile rendered", c)
		return nil
	}
	for _, kind := range stale {
		meta := r.Versions.Meta(primitives.TileArtifact(kind), freshTimestamp(tileSource, tiles[kind]))
		if err := storage.WriteTile(r.Paths.TilePath(kind, 0, c), meta, tile.Image(kind)); err != nil {
			return fmt.Errorf("storing %s tile %s: %w", kind, c, err)
		}
		r.count.tilesRendered.Add(1)
		r.Metrics.tile(kind.String(), "base")
		if kind == primitives.TileKindMap {
			mapExists = true
		}
	}
	if mapExists {
		level0.Insert(c)
	}
	return nil
}
