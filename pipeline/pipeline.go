package pipeline

import (
	"context"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/processor"
	"github.com/maxsupermanhd/RegionTiles/render"
	"github.com/maxsupermanhd/RegionTiles/world"
)

// Pipeline turns the regions of one world into map tiles, mipmaps and
// viewer metadata, reusing every cached artifact that is still valid.
type Pipeline struct {
	Paths     primitives.Paths
	Threads   int
	Source    world.Source
	Colorizer render.Colorizer
	Filter    *processor.SignFilter
	Versions  primitives.VersionTable
	Logger    *log.Logger
	Metrics   *Metrics
}

// Stats summarizes one run.
type Stats struct {
	Regions          int
	RegionsProcessed int
	RegionsCorrupt   int
	TilesRendered    int
	MipmapLevels     int
	MipmapsBuilt     int
	CorruptChunks    int
	Signs            int
	Duration         time.Duration
}

type counters struct {
	regionsProcessed atomic.Int64
	regionsCorrupt   atomic.Int64
	tilesRendered    atomic.Int64
	mipmapsBuilt     atomic.Int64
	corruptChunks    atomic.Int64
}

type run struct {
	*Pipeline
	log     *log.Logger
	workers int
	count   counters
}

// Run executes Discover, the region pass, the mipmap passes and the
// finalization in order. Viewer metadata is only written when every
// pass succeeded.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	started := time.Now()
	r := &run{Pipeline: p, log: p.Logger, workers: ResolveThreads(p.Threads)}
	if r.log == nil {
		r.log = log.New(io.Discard, "", 0)
	}
	var stats Stats

	regions, err := Discover(p.Paths)
	if err != nil {
		return stats, err
	}
	stats.Regions = len(regions)
	r.log.Printf("Found %d regions, running with %d workers", len(regions), r.workers)

	level0, err := r.regionPass(ctx, regions)
	if err != nil {
		return r.stats(stats), err
	}
	levels, err := r.mipmapPasses(ctx, level0)
	stats.MipmapLevels = len(levels) - 1
	if err != nil {
		return r.stats(stats), err
	}
	stats.Signs, err = r.finalize(regions, levels)
	if err != nil {
		return r.stats(stats), err
	}
	stats = r.stats(stats)
	stats.Duration = time.Since(started)
	p.Metrics.finished(stats.Signs, stats.Duration.Seconds())
	return stats, nil
}

func (r *run) stats(s Stats) Stats {
	s.RegionsProcessed = int(r.count.regionsProcessed.Load())
	s.RegionsCorrupt = int(r.count.regionsCorrupt.Load())
	s.TilesRendered = int(r.count.tilesRendered.Load())
	s.MipmapsBuilt = int(r.count.mipmapsBuilt.Load())
	s.CorruptChunks = int(r.count.corruptChunks.Load())
	return s
}
