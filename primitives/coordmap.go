package primitives

import (
	"encoding/json"
	"sort"
	"strconv"
	"sync"
)

// TileCoordMap records which tiles are populated at one mipmap level.
// Inserts may come from several workers at once.
type TileCoordMap struct {
	mu sync.Mutex
	m  map[int32][]int32
}

func NewTileCoordMap() *TileCoordMap {
	return &TileCoordMap{m: map[int32][]int32{}}
}

func (t *TileCoordMap) Insert(c TileCoords) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.m == nil {
		t.m = map[int32][]int32{}
	}
	xs := t.m[c.Z]
	i := sort.Search(len(xs), func(i int) bool { return xs[i] >= c.X })
	if i < len(xs) && xs[i] == c.X {
		return
	}
	xs = append(xs, 0)
	copy(xs[i+1:], xs[i:])
	xs[i] = c.X
	t.m[c.Z] = xs
}

func (t *TileCoordMap) Contains(c TileCoords) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	xs := t.m[c.Z]
	i := sort.Search(len(xs), func(i int) bool { return xs[i] >= c.X })
	return i < len(xs) && xs[i] == c.X
}

func (t *TileCoordMap) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, xs := range t.m {
		n += len(xs)
	}
	return n
}

// Coords lists all populated coordinates ordered by (z, x).
func (t *TileCoordMap) Coords() []TileCoords {
	t.mu.Lock()
	defer t.mu.Unlock()
	zs := make([]int32, 0, len(t.m))
	for z := range t.m {
		zs = append(zs, z)
	}
	sort.Slice(zs, func(i, j int) bool { return zs[i] < zs[j] })
	ret := []TileCoords{}
	for _, z := range zs {
		for _, x := range t.m[z] {
			ret = append(ret, TileCoords{X: x, Z: z})
		}
	}
	return ret
}

type Bounds struct {
	MinX int32 `json:"minX"`
	MaxX int32 `json:"maxX"`
	MinZ int32 `json:"minZ"`
	MaxZ int32 `json:"maxZ"`
}

// Bounds returns the smallest rectangle containing every populated tile.
// The second value is false for an empty map.
func (t *TileCoordMap) Bounds() (Bounds, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var b Bounds
	first := true
	for z, xs := range t.m {
		if len(xs) == 0 {
			continue
		}
		if first {
			b = Bounds{MinX: xs[0], MaxX: xs[len(xs)-1], MinZ: z, MaxZ: z}
			first = false
			continue
		}
		if xs[0] < b.MinX {
			b.MinX = xs[0]
		}
		if xs[len(xs)-1] > b.MaxX {
			b.MaxX = xs[len(xs)-1]
		}
		if z < b.MinZ {
			b.MinZ = z
		}
		if z > b.MaxZ {
			b.MaxZ = z
		}
	}
	return b, !first
}

// WithinFixedPoint reports whether every coordinate is its own parent,
// meaning further mipmap levels would repeat this one.
func (t *TileCoordMap) WithinFixedPoint() bool {
	b, ok := t.Bounds()
	if !ok {
		return true
	}
	return b.MinX >= -1 && b.MaxX <= 0 && b.MinZ >= -1 && b.MaxZ <= 0
}

func (t *TileCoordMap) MarshalJSON() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string][]int32, len(t.m))
	for z, xs := range t.m {
		out[strconv.FormatInt(int64(z), 10)] = xs
	}
	return json.Marshal(out)
}
