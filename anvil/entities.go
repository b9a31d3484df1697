package anvil

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Tnze/go-mc/nbt"

	"github.com/maxsupermanhd/RegionTiles/lib/nbtwalk"
	"github.com/maxsupermanhd/RegionTiles/world"
)

// rawSide is one side of a sign as stored, lines are JSON text.
type rawSide struct {
	lines [world.SignLines]string
	color string
}

type rawEntity struct {
	id      string
	x, y, z int32
	front   rawSide
	back    rawSide
}

func signType(id string) (world.BlockEntityType, bool) {
	switch strings.TrimPrefix(id, "minecraft:") {
	case "sign":
		return world.BlockEntitySign, true
	case "hanging_sign":
		return world.BlockEntityHangingSign, true
	}
	return "", false
}

// blockEntities extracts signs from the block_entities list of a chunk.
// Path layout of a field of an entity: root compound, the list, the
// entity compound.
func (d *chunkDecoder) blockEntities(raw []byte) ([]world.BlockEntity, error) {
	var ret []world.BlockEntity
	var cur *rawEntity
	inEntity := func(p []nbtwalk.NBTnode) bool {
		return cur != nil && len(p) >= 3 && p[1].T == nbt.TagList && p[1].N == "block_entities"
	}
	side := func(p []nbtwalk.NBTnode) *rawSide {
		switch p[3].N {
		case "front_text":
			return &cur.front
		case "back_text":
			return &cur.back
		}
		return nil
	}
	err := nbtwalk.WalkNBT(raw, &nbtwalk.WalkerCallbacks{
		CbCompound: func(p []nbtwalk.NBTnode, n string) {
			if len(p) == 2 && p[1].T == nbt.TagList && p[1].N == "block_entities" {
				cur = &rawEntity{}
			}
		},
		CbEnd: func(p []nbtwalk.NBTnode) {
			if len(p) != 3 || !inEntity(p) {
				return
			}
			if e, ok := d.finishEntity(cur); ok {
				ret = append(ret, e)
			}
			cur = nil
		},
		CbInt: func(p []nbtwalk.NBTnode, n string, val uint32) {
			if len(p) != 3 || !inEntity(p) {
				return
			}
			switch n {
			case "x":
				cur.x = int32(val)
			case "y":
				cur.y = int32(val)
			case "z":
				cur.z = int32(val)
			}
		},
		CbString: func(p []nbtwalk.NBTnode, n string, val string) {
			if !inEntity(p) {
				return
			}
			switch len(p) {
			case 3:
				switch n {
				case "id":
					cur.id = val
				case "Text1", "Text2", "Text3", "Text4":
					cur.front.lines[n[4]-'1'] = val
				case "Color":
					cur.front.color = val
				}
			case 4:
				if s := side(p); s != nil && n == "color" {
					s.color = val
				}
			case 5:
				if p[4].N != "messages" {
					return
				}
				s := side(p)
				if i := p[4].Index(); s != nil && i >= 0 && i < world.SignLines {
					s.lines[i] = val
				}
			}
		},
	})
	if err != nil {
		return nil, world.Corruptf("block entities: %v", err)
	}
	return ret, nil
}

func (d *chunkDecoder) finishEntity(e *rawEntity) (world.BlockEntity, bool) {
	t, ok := signType(e.id)
	if !ok {
		return world.BlockEntity{}, false
	}
	material, _ := d.blocks.SignMaterial(d.blockNameAt(e.x, e.y, e.z))
	return world.BlockEntity{
		Type: t,
		X:    e.x,
		Y:    e.y,
		Z:    e.z,
		Sign: &world.Sign{
			Material:  material,
			FrontText: e.front.text(),
			BackText:  e.back.text(),
		},
	}, true
}

func (s rawSide) text() world.SignText {
	var ret world.SignText
	for i, l := range s.lines {
		ret[i] = ParseTextComponent(l, s.color)
	}
	return ret
}

// ParseTextComponent flattens a JSON text component into styled spans.
// Text that is not valid JSON is taken literally. Spans without a color
// get defaultColor.
func ParseTextComponent(raw, defaultColor string) world.TextLine {
	ret := world.TextLine{}
	if raw == "" {
		return ret
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		v = raw
	}
	flattenText(v, world.TextSpan{Color: defaultColor}, &ret)
	return ret
}

func flattenText(v any, style world.TextSpan, out *world.TextLine) {
	switch t := v.(type) {
	case string:
		if t != "" {
			style.Text = t
			*out = append(*out, style)
		}
	case float64:
		style.Text = strconv.FormatFloat(t, 'f', -1, 64)
		*out = append(*out, style)
	case bool:
		style.Text = strconv.FormatBool(t)
		*out = append(*out, style)
	case []any:
		for _, e := range t {
			flattenText(e, style, out)
		}
	case map[string]any:
		if c, ok := t["color"].(string); ok {
			style.Color = c
		}
		setFlag := func(key string, dst *bool) {
			if b, ok := t[key].(bool); ok {
				*dst = b
			}
		}
		setFlag("bold", &style.Bold)
		setFlag("italic", &style.Italic)
		setFlag("underlined", &style.Underlined)
		setFlag("strikethrough", &style.Strikethrough)
		setFlag("obfuscated", &style.Obfuscated)
		if text, ok := t["text"]; ok {
			flattenText(text, style, out)
		} else if key, ok := t["translate"].(string); ok {
			flattenText(key, style, out)
		}
		if extra, ok := t["extra"].([]any); ok {
			for _, e := range extra {
				flattenText(e, style, out)
			}
		}
	}
}
