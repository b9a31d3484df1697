package processor

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/world"
)

// SignFilter selects the signs shown on the map by their text.
type SignFilter struct {
	patterns []*regexp.Regexp
}

// CompileSignFilter anchors every prefix at the start of the text and
// uses filters as given.
func CompileSignFilter(prefixes, filters []string) (*SignFilter, error) {
	f := &SignFilter{}
	for _, p := range prefixes {
		f.patterns = append(f.patterns, regexp.MustCompile("^"+regexp.QuoteMeta(p)))
	}
	for _, s := range filters {
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("sign filter %q: %w", s, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Match reports whether any pattern matches. Without patterns
// everything matches.
func (f *SignFilter) Match(text string) bool {
	if f == nil || len(f.patterns) == 0 {
		return true
	}
	for _, p := range f.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// MatchSign matches every written side of a sign on its own. Without
// patterns every sign matches.
func (f *SignFilter) MatchSign(s *world.Sign) bool {
	if f.Len() == 0 {
		return true
	}
	for _, side := range []world.SignText{s.FrontText, s.BackText} {
		if !side.IsEmpty() && f.Match(side.String()) {
			return true
		}
	}
	return false
}

func (f *SignFilter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.patterns)
}

// CollectEntities keeps the signs accepted by the filter.
func CollectEntities(entities []world.BlockEntity, f *SignFilter) *world.ProcessedEntities {
	ret := &world.ProcessedEntities{BlockEntities: []world.BlockEntity{}}
	for _, e := range entities {
		if e.Sign == nil {
			continue
		}
		if !f.MatchSign(e.Sign) {
			continue
		}
		ret.BlockEntities = append(ret.BlockEntities, e)
	}
	return ret
}

// RegionEntities pairs collected entities with their region.
type RegionEntities struct {
	Coords   primitives.TileCoords
	Entities *world.ProcessedEntities
}

// MergeEntities concatenates per region entities ordered by region
// (z, x), keeping each region's own order.
func MergeEntities(parts []RegionEntities) *world.ProcessedEntities {
	sorted := make([]RegionEntities, len(parts))
	copy(sorted, parts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Coords.Less(sorted[j].Coords)
	})
	ret := &world.ProcessedEntities{BlockEntities: []world.BlockEntity{}}
	for _, p := range sorted {
		if p.Entities == nil {
			continue
		}
		ret.BlockEntities = append(ret.BlockEntities, p.Entities.BlockEntities...)
	}
	return ret
}
