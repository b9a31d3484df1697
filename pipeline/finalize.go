package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/maxsupermanhd/RegionTiles/primitives"
	"github.com/maxsupermanhd/RegionTiles/processor"
	"github.com/maxsupermanhd/RegionTiles/storage"
	"github.com/maxsupermanhd/RegionTiles/world"
)

type viewerLevel struct {
	Bounds  primitives.Bounds        `json:"bounds"`
	Regions *primitives.TileCoordMap `json:"regions"`
}

type viewerSpawn struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}

type viewerInfo struct {
	Mipmaps []viewerLevel `json:"mipmaps"`
	Spawn   viewerSpawn   `json:"spawn"`
}

type viewerSign struct {
	X         int32            `json:"x"`
	Y         int32            `json:"y"`
	Z         int32            `json:"z"`
	Type      string           `json:"type,omitempty"`
	Material  string           `json:"material,omitempty"`
	FrontText []world.TextLine `json:"front_text,omitempty"`
	BackText  []world.TextLine `json:"back_text,omitempty"`
}

type viewerEntities struct {
	Signs []viewerSign `json:"signs"`
}

// signLines drops trailing empty lines, nil for a blank side.
func signLines(t world.SignText) []world.TextLine {
	n := len(t)
	for n > 0 && t[n-1].String() == "" {
		n--
	}
	if n == 0 {
		return nil
	}
	ret := make([]world.TextLine, n)
	for i := range ret {
		ret[i] = t[i]
		if ret[i] == nil {
			ret[i] = world.TextLine{}
		}
	}
	return ret
}

func toViewerSigns(e *world.ProcessedEntities) []viewerSign {
	ret := []viewerSign{}
	for _, b := range e.BlockEntities {
		if b.Sign == nil {
			continue
		}
		s := viewerSign{X: b.X, Y: b.Y, Z: b.Z, Material: b.Sign.Material}
		if b.Type != world.BlockEntitySign {
			s.Type = string(b.Type)
		}
		s.FrontText = signLines(b.Sign.FrontText)
		s.BackText = signLines(b.Sign.BackText)
		ret = append(ret, s)
	}
	return ret
}

func stageJSON(path string, v any) (*storage.Staged, error) {
	return storage.Stage(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(v)
	})
}

// mergeEntities loads the per region entities of every region and keeps
// the ones accepted by the sign filter. Regions without a stored entity
// list, such as corrupt ones, are left out.
func (r *run) mergeEntities(regions []Region) (*world.ProcessedEntities, time.Time, error) {
	var newest time.Time
	parts := make([]processor.RegionEntities, 0, len(regions))
	for _, reg := range regions {
		e := &world.ProcessedEntities{}
		meta, err := storage.ReadBlob(r.Paths.EntitiesPath(0, reg.Coords), r.Versions.Get(primitives.ArtifactEntities), e)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrVersionMismatch) {
				continue
			}
			return nil, newest, fmt.Errorf("loading entities of %s: %w", reg.Coords, err)
		}
		if meta.Timestamp.After(newest) {
			newest = meta.Timestamp
		}
		parts = append(parts, processor.RegionEntities{Coords: reg.Coords, Entities: processor.CollectEntities(e.BlockEntities, r.Filter)})
	}
	return processor.MergeEntities(parts), newest, nil
}

func (r *run) spawn() viewerSpawn {
	sr, ok := r.Source.(world.SpawnReader)
	if !ok {
		return viewerSpawn{}
	}
	x, z, err := sr.Spawn()
	if err != nil {
		r.log.Printf("Failed to read spawn point, using 0 0: %v", err)
		return viewerSpawn{}
	}
	return viewerSpawn{X: x, Z: z}
}

// finalize writes the merged entities and the viewer metadata. It
// returns the number of signs listed for the viewer.
func (r *run) finalize(regions []Region, levels []*primitives.TileCoordMap) (int, error) {
	merged, newest, err := r.mergeEntities(regions)
	if err != nil {
		return 0, err
	}
	meta := r.Versions.Meta(primitives.ArtifactEntities, newest)
	if err := storage.WriteBlob(r.Paths.EntitiesFinalPath(), meta, merged); err != nil {
		return 0, fmt.Errorf("storing merged entities: %w", err)
	}
	signs := toViewerSigns(merged)

	info := viewerInfo{Mipmaps: []viewerLevel{}, Spawn: r.spawn()}
	for _, l := range levels {
		b, _ := l.Bounds()
		info.Mipmaps = append(info.Mipmaps, viewerLevel{Bounds: b, Regions: l})
	}

	// both viewer files are complete on disk before either is replaced,
	// info.json goes last
	ents, err := stageJSON(r.Paths.ViewerEntitiesPath(), viewerEntities{Signs: signs})
	if err != nil {
		return 0, fmt.Errorf("writing viewer entities: %w", err)
	}
	inf, err := stageJSON(r.Paths.ViewerInfoPath(), info)
	if err != nil {
		ents.Discard()
		return 0, fmt.Errorf("writing viewer info: %w", err)
	}
	if err := ents.Commit(); err != nil {
		inf.Discard()
		return 0, fmt.Errorf("writing viewer entities: %w", err)
	}
	if err := inf.Commit(); err != nil {
		return 0, fmt.Errorf("writing viewer info: %w", err)
	}
	return len(signs), nil
}
