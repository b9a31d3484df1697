// Command signfinder searches the sign text collected by a render run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/storage"
	"github.com/maxsupermanhd/RegionTiles/world"
)

var (
	outdir     = flag.String("dir", "", "Render output directory")
	match      = flag.String("match", "", "Text to look for, case insensitive")
	outfname   = flag.String("out", "out.txt", "Filename for writing results to")
	threadsnum = flag.Int("threads", 3, "Thread count")
)

func must(err error) {
	if err != nil {
		log.Fatalln(err)
	}
}

// matchSigns lists the signs containing match, one line each.
func matchSigns(e *world.ProcessedEntities, match string) []string {
	match = strings.ToLower(match)
	ret := []string{}
	for i := range e.BlockEntities {
		b := &e.BlockEntities[i]
		if b.Sign == nil {
			continue
		}
		text := b.DisplayText()
		if !strings.Contains(strings.ToLower(text), match) {
			continue
		}
		ret = append(ret, fmt.Sprintf("SIGN x%d y%d z%d %s %s %q", b.X, b.Y, b.Z, b.Sign.Material, b.Type, text))
	}
	return ret
}

// entityRegions lists the regions with stored entity lists.
func entityRegions(paths primitives.Paths) ([]primitives.TileCoords, error) {
	entries, err := os.ReadDir(paths.EntitiesDir(0))
	if err != nil {
		return nil, err
	}
	ret := []primitives.TileCoords{}
	for _, e := range entries {
		c, ok := primitives.ParseRegionFilename(strings.TrimSuffix(e.Name(), ".bin") + ".mca")
		if ok && !e.IsDir() {
			ret = append(ret, c)
		}
	}
	return ret, nil
}

func worker(wid int, paths primitives.Paths, jobs <-chan primitives.TileCoords, results chan<- string, wg *sync.WaitGroup) {
	defer wg.Done()
	regioncount := 0
	for c := range jobs {
		e := &world.ProcessedEntities{}
		_, err := storage.ReadBlob(paths.EntitiesPath(0, c), primitives.CurrentVersions.Get(primitives.ArtifactEntities), e)
		if err != nil {
			log.Printf("Worker %d: region %s: %v", wid, c, err)
			continue
		}
		regioncount++
		for _, r := range matchSigns(e, *match) {
			results <- r
		}
	}
	log.Printf("Worker %d exits, searched %d regions", wid, regioncount)
}

func filewriter(results <-chan string, done chan<- struct{}) {
	file, err := os.Create(*outfname)
	must(err)
	defer close(done)
	defer file.Close()
	linecount := 0
	for r := range results {
		linecount++
		if _, err := file.WriteString(r + "\n"); err != nil {
			log.Fatalln(err)
		}
	}
	log.Printf("File writer exits, wrote %d lines", linecount)
}

func main() {
	flag.Parse()
	if *outdir == "" {
		log.Fatalln("Output directory not set")
	}
	paths := primitives.Paths{OutputDir: *outdir}
	coordlist, err := entityRegions(paths)
	must(err)

	jobs := make(chan primitives.TileCoords, 64)
	results := make(chan string)
	done := make(chan struct{})
	wg := new(sync.WaitGroup)
	go filewriter(results, done)
	for w := 0; w < *threadsnum; w++ {
		wg.Add(1)
		go worker(w, paths, jobs, results, wg)
	}
	starttime := time.Now()
	for _, c := range coordlist {
		jobs <- c
	}
	close(jobs)
	wg.Wait()
	close(results)
	<-done
	log.Printf("Searched %d regions in %s", len(coordlist), time.Since(starttime).Round(time.Millisecond))
}
