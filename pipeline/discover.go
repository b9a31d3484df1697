package pipeline

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/maxsupermanhd/RegionTiles/primitives"
)

// Region is an input region file.
type Region struct {
	Coords primitives.TileCoords
	Mtime  time.Time
}

// Discover lists the region files of a world ordered by (z, x). Files
// not named like regions are ignored.
func Discover(paths primitives.Paths) ([]Region, error) {
	dir := paths.RegionDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing regions: %w", err)
	}
	ret := []Region{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		c, ok := primitives.ParseRegionFilename(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", c, err)
		}
		ret = append(ret, Region{Coords: c, Mtime: info.ModTime()})
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Coords.Less(ret[j].Coords)
	})
	return ret, nil
}

func sortCoords(cs []primitives.TileCoords) {
	sort.Slice(cs, func(i, j int) bool {
		return cs[i].Less(cs[j])
	})
}
