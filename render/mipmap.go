package render

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"

	"github.com/maxsupermanhd/RegionTiles/primitives"
)

// Children lists the lower level tiles of one parent by quadrant, in
// the order (0,0), (1,0), (0,1), (1,1). Missing children are marked by
// the present flags.
type Children struct {
	Coords  [4]primitives.TileCoords
	Present [4]bool
}

func quadrantIndex(c primitives.TileCoords) int {
	qx, qz := c.Quadrant()
	return qz*2 + qx
}

// ChildCoords returns the four possible children of a parent tile in
// quadrant order.
func ChildCoords(parent primitives.TileCoords) [4]primitives.TileCoords {
	var ret [4]primitives.TileCoords
	for i := range ret {
		ret[i] = primitives.TileCoords{X: parent.X*2 + int32(i%2), Z: parent.Z*2 + int32(i/2)}
	}
	return ret
}

// GroupByParent collects coordinates of one level under their parents.
func GroupByParent(coords []primitives.TileCoords) map[primitives.TileCoords]Children {
	ret := map[primitives.TileCoords]Children{}
	for _, c := range coords {
		p := c.Parent()
		ch, ok := ret[p]
		if !ok {
			ch.Coords = ChildCoords(p)
		}
		ch.Present[quadrantIndex(c)] = true
		ret[p] = ch
	}
	return ret
}

// BuildMipmap downsamples up to four children into one tile. Nil
// children leave their quadrant transparent.
func BuildMipmap(children [4]image.Image) *image.RGBA {
	ret := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	half := TileSize / 2
	for i, child := range children {
		if child == nil {
			continue
		}
		scaled := resize.Resize(uint(half), uint(half), child, resize.Bilinear)
		at := image.Pt((i%2)*half, (i/2)*half)
		dr := image.Rectangle{Min: at, Max: at.Add(image.Pt(half, half))}
		draw.Draw(ret, dr, scaled, scaled.Bounds().Min, draw.Src)
	}
	return ret
}
