package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/render"
	"github.com/maxsupermanhd/RegionTiles/storage"
)

// mipmapPasses builds levels until the previous level is empty or the
// newest one can not shrink any further. The returned slice starts with
// level 0.
func (r *run) mipmapPasses(ctx context.Context, level0 *primitives.TileCoordMap) ([]*primitives.TileCoordMap, error) {
	levels := []*primitives.TileCoordMap{level0}
	for {
		prev := levels[len(levels)-1]
		if prev.Len() == 0 {
			return levels, nil
		}
		level := len(levels)
		next, err := r.mipmapLevel(ctx, level, prev)
		if err != nil {
			return levels, fmt.Errorf("mipmap level %d: %w", level, err)
		}
		levels = append(levels, next)
		r.log.Printf("Mipmap level %d has %d tiles", level, next.Len())
		if next.WithinFixedPoint() {
			return levels, nil
		}
	}
}

func (r *run) mipmapLevel(ctx context.Context, level int, prev *primitives.TileCoordMap) (*primitives.TileCoordMap, error) {
	next := primitives.NewTileCoordMap()
	groups := render.GroupByParent(prev.Coords())
	parents := make([]primitives.TileCoords, 0, len(groups))
	for c := range groups {
		parents = append(parents, c)
	}
	sortCoords(parents)
	p := newPool(ctx, r.workers)
	for _, parent := range parents {
		children := groups[parent]
		p.Go(func(ctx context.Context) error {
			for _, kind := range primitives.TileKinds {
				built, err := r.mipmapTile(kind, level, parent, children)
				if err != nil {
					return err
				}
				if built && kind == primitives.TileKindMap {
					next.Insert(parent)
				}
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

// mipmapTile refreshes one mipmap tile. The tile records the newest
// timestamp of its children, or a later one when it replaces a tile
// already stamped with it. The result tells if the tile exists.
func (r *run) mipmapTile(kind primitives.TileKind, level int, parent primitives.TileCoords, children render.Children) (bool, error) {
	var childPaths [4]string
	var newest time.Time
	found := false
	for i, c := range children.Coords {
		if !children.Present[i] {
			continue
		}
		path := r.Paths.TilePath(kind, level-1, c)
		meta, ok, err := storage.ReadTileMeta(path)
		if err != nil {
			return false, fmt.Errorf("child %s: %w", c, err)
		}
		if !ok {
			continue
		}
		childPaths[i] = path
		found = true
		if meta.Timestamp.After(newest) {
			newest = meta.Timestamp
		}
	}
	if !found {
		return false, nil
	}

	path := r.Paths.TilePath(kind, level, parent)
	state := r.check(primitives.ArtifactMipmap, path, newest, storage.ReadTileMeta)
	if state.valid {
		return true, nil
	}
	var imgs [4]image.Image
	for i, cp := range childPaths {
		if cp == "" {
			continue
		}
		img, err := storage.ReadTile(cp)
		if err != nil {
			return false, err
		}
		if img != nil {
			imgs[i] = img
		}
	}
	meta := r.Versions.Meta(primitives.ArtifactMipmap, freshTimestamp(newest, state))
	if err := storage.WriteTile(path, meta, render.BuildMipmap(imgs)); err != nil {
		return false, fmt.Errorf("storing %s mipmap %s: %w", kind, parent, err)
	}
	r.count.mipmapsBuilt.Add(1)
	r.Metrics.tile(kind.String(), "mipmap")
	return true, nil
}
