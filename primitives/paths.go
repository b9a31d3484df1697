package primitives

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

// Paths derives the location of every artifact from the input world
// directory and the output directory. Nothing else builds artifact paths.
type Paths struct {
	InputDir  string
	OutputDir string
}

var regionFnameRegexp = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

// ParseRegionFilename extracts tile coordinates from a region file name
// such as r.-1.4.mca.
func ParseRegionFilename(fname string) (TileCoords, bool) {
	r := regionFnameRegexp.FindStringSubmatch(fname)
	if len(r) != 3 {
		return TileCoords{}, false
	}
	x, err := strconv.ParseInt(r[1], 10, 32)
	if err != nil {
		return TileCoords{}, false
	}
	z, err := strconv.ParseInt(r[2], 10, 32)
	if err != nil {
		return TileCoords{}, false
	}
	return TileCoords{X: int32(x), Z: int32(z)}, true
}

func coordFilename(c TileCoords, ext string) string {
	return fmt.Sprintf("r.%d.%d.%s", c.X, c.Z, ext)
}

func (p Paths) RegionDir() string {
	return filepath.Join(p.InputDir, "region")
}

func (p Paths) RegionPath(c TileCoords) string {
	return filepath.Join(p.RegionDir(), coordFilename(c, "mca"))
}

func (p Paths) LevelDatPath() string {
	return filepath.Join(p.InputDir, "level.dat")
}

func (p Paths) ProcessedDir() string {
	return filepath.Join(p.OutputDir, "processed")
}

func (p Paths) ProcessedPath(c TileCoords) string {
	return filepath.Join(p.ProcessedDir(), coordFilename(c, "bin"))
}

func (p Paths) entitiesRoot() string {
	return filepath.Join(p.ProcessedDir(), "entities")
}

func (p Paths) EntitiesDir(level int) string {
	return filepath.Join(p.entitiesRoot(), strconv.Itoa(level))
}

func (p Paths) EntitiesPath(level int, c TileCoords) string {
	return filepath.Join(p.EntitiesDir(level), coordFilename(c, "bin"))
}

func (p Paths) EntitiesFinalPath() string {
	return filepath.Join(p.entitiesRoot(), "entities.bin")
}

func (p Paths) TileDir(kind TileKind, level int) string {
	return filepath.Join(p.OutputDir, kind.String(), strconv.Itoa(level))
}

func (p Paths) TilePath(kind TileKind, level int, c TileCoords) string {
	return filepath.Join(p.TileDir(kind, level), coordFilename(c, "png"))
}

func (p Paths) ViewerInfoPath() string {
	return filepath.Join(p.OutputDir, "info.json")
}

func (p Paths) ViewerEntitiesPath() string {
	return filepath.Join(p.OutputDir, "entities.json")
}
