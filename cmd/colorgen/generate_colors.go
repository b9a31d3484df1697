// Command colorgen builds the block color table from a block description
// file and the textures of a Minecraft client jar.
package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

var (
	JARpath    = flag.String("jar", "~/.minecraft/versions/1.21.jar", "path to jar")
	blocksPath = flag.String("blocks", "blocks.json", "block descriptions")
	outPath    = flag.String("out", "resource/data/blocks.json", "where to write the color table")
)

func must(e error) {
	if e != nil {
		log.Fatal(e)
	}
}

// blockDesc describes how a block is drawn. A null description marks
// blocks that are never drawn.
type blockDesc struct {
	// texture path under assets/minecraft/textures without extension,
	// defaults to the block name, empty string disables the color
	Texture      *string `json:"texture"`
	Grass        bool    `json:"grass"`
	Foliage      bool    `json:"foliage"`
	Birch        bool    `json:"birch"`
	Spruce       bool    `json:"spruce"`
	Water        bool    `json:"water"`
	SignMaterial *string `json:"sign_material"`
}

type rgb struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

type blockColor struct {
	Color        rgb     `json:"color"`
	Opaque       bool    `json:"opaque"`
	Grass        bool    `json:"grass"`
	Foliage      bool    `json:"foliage"`
	Birch        bool    `json:"birch"`
	Spruce       bool    `json:"spruce"`
	Water        bool    `json:"water"`
	SignMaterial *string `json:"sign_material"`
}

// textureOpener returns the png of a texture, nil if there is none.
type textureOpener func(texture string) (io.ReadCloser, error)

func jarTextures(r *zip.Reader) textureOpener {
	files := map[string]*zip.File{}
	for _, f := range r.File {
		files[f.Name] = f
	}
	return func(texture string) (io.ReadCloser, error) {
		f, ok := files["assets/minecraft/textures/"+strings.TrimPrefix(texture, "minecraft:")+".png"]
		if !ok {
			return nil, nil
		}
		return f.Open()
	}
}

// findColor is the alpha weighted mean color of an image. The second
// value is false for fully transparent images.
func findColor(f io.Reader) (rgb, bool, error) {
	img, err := png.Decode(f)
	if err != nil {
		return rgb{}, false, fmt.Errorf("decode error: %w", err)
	}
	bounds := img.Bounds()
	var rr, gg, bb, aa float64
	for i := bounds.Min.X; i < bounds.Max.X; i++ {
		for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
			// premultiplied components already carry the alpha weight
			r, g, b, a := img.At(i, j).RGBA()
			rr += float64(r)
			gg += float64(g)
			bb += float64(b)
			aa += float64(a)
		}
	}
	if aa == 0 {
		return rgb{}, false, nil
	}
	mean := func(v float64) float64 {
		return math.Round(v / aa * 0xff)
	}
	return rgb{R: mean(rr), G: mean(gg), B: mean(bb)}, true, nil
}

func generate(descs map[string]*blockDesc, open textureOpener) (map[string]blockColor, error) {
	matched := 0
	cached := map[string]rgb{}
	ret := make(map[string]blockColor, len(descs))
	for name, d := range descs {
		out := blockColor{}
		if d == nil {
			ret[name] = out
			continue
		}
		texture := name
		if d.Texture != nil {
			texture = *d.Texture
		}
		if texture != "" {
			c, ok := cached[texture]
			if !ok {
				r, err := open(texture)
				if err != nil {
					return nil, fmt.Errorf("texture %s of %s: %w", texture, name, err)
				}
				if r == nil {
					log.Printf("Texture %s of block %s not found: %s", texture, name, spew.Sdump(d))
				} else {
					var found bool
					c, found, err = findColor(r)
					r.Close()
					if err != nil {
						return nil, fmt.Errorf("texture %s of %s: %w", texture, name, err)
					}
					ok = found
					if found {
						cached[texture] = c
					}
				}
			}
			if ok {
				out.Color = c
				out.Opaque = true
				out.Grass = d.Grass
				out.Foliage = d.Foliage
				out.Birch = d.Birch
				out.Spruce = d.Spruce
				out.Water = d.Water
				matched++
			}
		}
		out.SignMaterial = d.SignMaterial
		ret[name] = out
	}
	log.Printf("Colors matched %d/%d", matched, len(descs))
	return ret, nil
}

// writeTable writes one block per line, sorted by name.
func writeTable(w io.Writer, table map[string]blockColor) error {
	names := make([]string, 0, len(table))
	for n := range table {
		names = append(names, n)
	}
	sort.Strings(names)
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, n := range names {
		k, err := json.Marshal(n)
		if err != nil {
			return err
		}
		v, err := json.Marshal(table[n])
		if err != nil {
			return err
		}
		buf.WriteString("\t")
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
		if i != len(names)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	spew.Config.Indent = "   "

	b, err := os.ReadFile(*blocksPath)
	must(err)
	descs := map[string]*blockDesc{}
	must(json.Unmarshal(b, &descs))
	log.Printf("Loaded %d block descriptions", len(descs))

	log.Printf("Opening jar [%s]", *JARpath)
	r, err := zip.OpenReader(*JARpath)
	must(err)
	defer r.Close()

	table, err := generate(descs, jarTextures(&r.Reader))
	must(err)

	f, err := os.Create(*outPath)
	must(err)
	defer f.Close()
	must(writeTable(f, table))
}
