package anvil

import (
	"os"

	"github.com/Tnze/go-mc/save"
	"github.com/klauspost/compress/gzip"
)

func readSaveLevel(path string) (*save.LevelData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	gf, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gf.Close()
	d, err := save.ReadLevel(gf)
	if err != nil {
		return nil, err
	}
	return &d.Data, nil
}

// Spawn reads the world spawn point from level.dat.
func (s *Source) Spawn() (x, z int32, err error) {
	d, err := readSaveLevel(s.Paths.LevelDatPath())
	if err != nil {
		return 0, 0, err
	}
	return int32(d.SpawnX), int32(d.SpawnZ), nil
}
