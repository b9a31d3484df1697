package primitives

import (
	"fmt"
	"time"
)

// FileMetaVersion is stored with every cached artifact. An artifact is
// only reused when its stored version equals the current one for its kind.
type FileMetaVersion uint32

// FileMeta is the header of a cached artifact. Timestamp is the
// modification time of the input the artifact was built from.
type FileMeta struct {
	Version   FileMetaVersion `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
}

type ArtifactKind int

const (
	// processed region data from region files
	ArtifactRegion ArtifactKind = iota
	// map tiles from processed regions
	ArtifactMap
	// lightmap tiles from processed regions
	ArtifactLightmap
	// mipmap tiles from lower level tiles
	ArtifactMipmap
	// processed entities from region files
	ArtifactEntities

	artifactKindCount
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactRegion:
		return "region"
	case ArtifactMap:
		return "map"
	case ArtifactLightmap:
		return "lightmap"
	case ArtifactMipmap:
		return "mipmap"
	case ArtifactEntities:
		return "entities"
	default:
		return fmt.Sprintf("artifact(%d)", int(k))
	}
}

// VersionTable holds the current format version of every artifact kind.
// It is a value type, copies can not alter the table they came from.
type VersionTable [artifactKindCount]FileMetaVersion

// CurrentVersions is the table used by the renderer.
//
// Bump Region when processing of region data changes (usually updated
// block or biome tables), Map when map tile rendering changes, Lightmap
// when lightmap rendering changes, Mipmap when downsampling changes and
// Entities when entity collection changes.
var CurrentVersions = VersionTable{
	ArtifactRegion:   1,
	ArtifactMap:      0,
	ArtifactLightmap: 1,
	ArtifactMipmap:   0,
	ArtifactEntities: 0,
}

func (t VersionTable) Get(kind ArtifactKind) FileMetaVersion {
	return t[kind]
}

// With returns a copy of the table with one version replaced.
func (t VersionTable) With(kind ArtifactKind, v FileMetaVersion) VersionTable {
	t[kind] = v
	return t
}

// IsValid tells if a cached artifact can be reused: its stored version
// must match the current one and it must not be older than its input.
func (t VersionTable) IsValid(kind ArtifactKind, stored FileMetaVersion, sourceMtime, cachedMtime time.Time) bool {
	return stored == t[kind] && !cachedMtime.Before(sourceMtime)
}

// Meta builds the header for a freshly generated artifact.
func (t VersionTable) Meta(kind ArtifactKind, source time.Time) FileMeta {
	return FileMeta{Version: t[kind], Timestamp: source}
}

// TileArtifact maps a base tile kind to its artifact kind.
func TileArtifact(kind TileKind) ArtifactKind {
	if kind == TileKindLightmap {
		return ArtifactLightmap
	}
	return ArtifactMap
}
