/*
	RegionTiles, renders block game worlds into map tiles
	Copyright (C) 2022 Maxim Zhuchkov

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.

	Contact me via mail: q3.max.2011@yandex.ru or Discord: MaX#6717
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/maxsupermanhd/RegionTiles/anvil"
	"github.com/maxsupermanhd/RegionTiles/pipeline"
	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/processor"
	"github.com/maxsupermanhd/RegionTiles/resource"

	"github.com/davecgh/go-spew/spew"
	humanize "github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/mem"
	"github.com/urfave/cli/v2"
)

var (
	BuildTime  = "00000000.000000"
	CommitHash = "0000000"
	GoVersion  = "0.0"
	GitTag     = "0.0"
)

type app struct {
	cfg     RegionTilesConfig
	paths   primitives.Paths
	source  *anvil.Source
	pipe    pipeline.Pipeline
	metrics *pipeline.Metrics
}

func loadTable[T any](path string, def func() T, load func(io.Reader) (T, error)) (T, error) {
	if path == "" {
		return def(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return load(f)
}

func newApp(cfg RegionTilesConfig) (*app, error) {
	blocks, err := loadTable(cfg.BlocksLocation, resource.DefaultBlockTable, resource.LoadBlockTable)
	if err != nil {
		return nil, fmt.Errorf("loading block table: %w", err)
	}
	biomes, err := loadTable(cfg.BiomesLocation, resource.DefaultBiomeTable, resource.LoadBiomeTable)
	if err != nil {
		return nil, fmt.Errorf("loading biome table: %w", err)
	}
	filter, err := processor.CompileSignFilter(cfg.SignPrefixes, cfg.SignFilters)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d blocks, %d biomes, %d sign patterns", blocks.Len(), biomes.Len(), filter.Len())

	a := &app{
		cfg:     cfg,
		paths:   primitives.Paths{InputDir: cfg.Input, OutputDir: cfg.Output},
		metrics: pipeline.NewMetrics(),
	}
	a.source = anvil.NewSource(a.paths, blocks, log.Default())
	a.pipe = pipeline.Pipeline{
		Paths:     a.paths,
		Threads:   cfg.threads(),
		Source:    a.source,
		Colorizer: resource.NewColorizer(biomes),
		Filter:    filter,
		Versions:  primitives.CurrentVersions,
		Metrics:   a.metrics,
	}
	return a, nil
}

func (a *app) runOnce(ctx context.Context) error {
	logger, id := runLogger()
	logger.Printf("Starting run %s: %s -> %s", id, a.cfg.Input, a.cfg.Output)
	p := a.pipe
	p.Logger = logger
	stats, err := p.Run(ctx)
	if err != nil {
		return err
	}
	logger.Printf("Done in %s: %s regions (%s processed, %s corrupt), %s corrupt chunks",
		stats.Duration.Round(time.Millisecond),
		humanize.Comma(int64(stats.Regions)),
		humanize.Comma(int64(stats.RegionsProcessed)),
		humanize.Comma(int64(stats.RegionsCorrupt)),
		humanize.Comma(int64(stats.CorruptChunks)))
	logger.Printf("Rendered %s tiles, built %s mipmaps over %d levels, listed %s signs",
		humanize.Comma(int64(stats.TilesRendered)),
		humanize.Comma(int64(stats.MipmapsBuilt)),
		stats.MipmapLevels,
		humanize.Comma(int64(stats.Signs)))
	if unknown := a.source.UnknownBlocks(); len(unknown) > 0 {
		logger.Printf("%d block names are missing from the block table", len(unknown))
	}
	if a.cfg.MetricsTextfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
			logger.Printf("Failed to write metrics: %v", err)
		}
	}
	return nil
}

func logMemory() {
	virtmem, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	log.Printf("Memory: %s available of %s", humanize.Bytes(virtmem.Available), humanize.Bytes(virtmem.Total))
}

// applyFlags lets the command line override the config file.
func applyFlags(c *cli.Context, cfg *RegionTilesConfig) {
	if c.NArg() > 0 {
		cfg.Input = c.Args().Get(0)
	}
	if c.NArg() > 1 {
		cfg.Output = c.Args().Get(1)
	}
	if c.IsSet("input") {
		cfg.Input = c.String("input")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("threads") {
		threads := c.Int("threads")
		cfg.Threads = &threads
	}
	if c.IsSet("sign-prefix") {
		cfg.SignPrefixes = c.StringSlice("sign-prefix")
	}
	if c.IsSet("sign-filter") {
		cfg.SignFilters = c.StringSlice("sign-filter")
	}
	if c.IsSet("blocks") {
		cfg.BlocksLocation = c.String("blocks")
	}
	if c.IsSet("biomes") {
		cfg.BiomesLocation = c.String("biomes")
	}
	if c.IsSet("logs") {
		cfg.LogsLocation = c.String("logs")
	}
	if c.IsSet("metrics-textfile") {
		cfg.MetricsTextfile = c.String("metrics-textfile")
	}
	if c.IsSet("watch") {
		cfg.Watch.Enabled = c.Bool("watch")
	}
	if c.IsSet("debounce") {
		cfg.Watch.Debounce = c.String("debounce")
	}
}

func action(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("error loading config file: %w", err)
	}
	applyFlags(c, &cfg)
	if err := cfg.validate(); err != nil {
		return err
	}
	setupLogging(cfg.LogsLocation)
	log.Println()
	log.Println("RegionTiles is starting up...")
	log.Printf("Built %s, Ver %s (%s), %s", BuildTime, GitTag, CommitHash, GoVersion)
	logMemory()
	if c.Bool("debug") {
		log.Print(spew.Sdump(cfg))
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.runOnce(ctx); err != nil {
		if !cfg.Watch.Enabled {
			return err
		}
		log.Printf("Run failed: %v", err)
	}
	if cfg.Watch.Enabled {
		return a.watchRegions(ctx)
	}
	return nil
}

func newCLI() *cli.App {
	return &cli.App{
		Name:      "regiontiles",
		Usage:     "renders world region files into map tiles",
		ArgsUsage: "[input] [output]",
		Version:   GitTag,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file, json or yaml"},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "world directory"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output directory"},
			&cli.IntFlag{Name: "threads", Aliases: []string{"t"}, Usage: "worker count, 0 uses every core", Value: 1},
			&cli.StringSliceFlag{Name: "sign-prefix", Usage: "keep signs starting with this text"},
			&cli.StringSliceFlag{Name: "sign-filter", Usage: "keep signs matching this regular expression"},
			&cli.StringFlag{Name: "blocks", Usage: "block color table replacing the built in one"},
			&cli.StringFlag{Name: "biomes", Usage: "biome table replacing the built in one"},
			&cli.StringFlag{Name: "logs", Usage: "log file location"},
			&cli.StringFlag{Name: "metrics-textfile", Usage: "write run metrics in prometheus text format"},
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "re-render when region files change"},
			&cli.StringFlag{Name: "debounce", Usage: "quiet period before a watch re-render"},
			&cli.BoolFlag{Name: "debug", Usage: "dump the effective config"},
		},
		Action: action,
	}
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if buildinfo, ok := debug.ReadBuildInfo(); ok {
		GoVersion = buildinfo.GoVersion
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}
	if err := newCLI().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
