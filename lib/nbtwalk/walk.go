package nbtwalk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Tnze/go-mc/nbt"
)

var (
	ErrUnknownTag       = errors.New("unknown tag")
	ErrUnexpectedEndTag = errors.New("unexpected TagEnd")
	ErrNegativeSize     = errors.New("negative size")
	ErrOutOfBounds      = errors.New("out of bounds")
)

type WalkError struct {
	E            error
	ReadingStage string
	Offset       int
}

func (err WalkError) Error() string {
	return fmt.Sprintf("%s at %d: %s", err.E.Error(), err.Offset, err.ReadingStage)
}

func (err WalkError) Unwrap() error {
	return err.E
}

// NBTnode is an open compound or list on the walk path.
type NBTnode struct {
	T byte
	N string
	// list length
	S int
	// list element type
	E      byte
	toRead int
}

// Index is the position of the list element being walked.
func (n NBTnode) Index() int {
	return n.S - n.toRead - 1
}

func ByteTagName(b byte) string {
	names := []string{
		"TagEnd",
		"TagByte",
		"TagShort",
		"TagInt",
		"TagLong",
		"TagFloat",
		"TagDouble",
		"TagByteArray",
		"TagString",
		"TagList",
		"TagCompound",
		"TagIntArray",
		"TagLongArray",
	}
	if int(b) >= len(names) {
		return fmt.Sprintf("unknown tag 0x%02x", b)
	}
	return names[b]
}

func PrintNodeSlice(p []NBTnode) string {
	var sb strings.Builder
	for _, v := range p {
		sb.WriteByte('.')
		sb.WriteString(strconv.Quote(v.N))
		if v.T == nbt.TagList {
			sb.WriteString("[" + strconv.Itoa(v.Index()) + "]")
		}
	}
	return sb.String()
}

// WalkerCallbacks are invoked with the path of open containers and the
// tag name, which is empty for list elements. Nil callbacks are skipped.
type WalkerCallbacks struct {
	CbEnd       func(p []NBTnode)
	CbByte      func(p []NBTnode, n string, val byte)
	CbShort     func(p []NBTnode, n string, val uint16)
	CbInt       func(p []NBTnode, n string, val uint32)
	CbLong      func(p []NBTnode, n string, val uint64)
	CbFloat     func(p []NBTnode, n string, val float32)
	CbDouble    func(p []NBTnode, n string, val float64)
	CbByteArray func(p []NBTnode, n string, val []byte)
	CbString    func(p []NBTnode, n string, val string)
	CbList      func(p []NBTnode, n string, t byte, l int)
	CbCompound  func(p []NBTnode, n string)
	CbIntArray  func(p []NBTnode, n string, val []uint32)
	CbLongArray func(p []NBTnode, n string, val []uint64)
}

type walker struct {
	data []byte
	i    int
}

func (w *walker) need(n int, stage string) error {
	if n < 0 || w.i+n > len(w.data) {
		return WalkError{E: ErrOutOfBounds, ReadingStage: stage, Offset: w.i}
	}
	return nil
}

func (w *walker) size(stage string) (int, error) {
	if err := w.need(4, stage); err != nil {
		return 0, err
	}
	s := int32(binary.BigEndian.Uint32(w.data[w.i:]))
	if s < 0 {
		return 0, WalkError{E: ErrNegativeSize, ReadingStage: stage, Offset: w.i}
	}
	w.i += 4
	return int(s), nil
}

// WalkNBT walks uncompressed NBT data without reflection, reporting
// every tag to the callbacks in document order. Walking stops after the
// root compound is closed.
// Reflectless approach inspired by github.com/rmmh/cubeographer.
func WalkNBT(data []byte, cb *WalkerCallbacks) error {
	w := &walker{data: data}
	p := make([]NBTnode, 0, 32)
	for {
		var t byte
		n := ""
		if len(p) > 0 && p[len(p)-1].T == nbt.TagList {
			top := &p[len(p)-1]
			if top.toRead == 0 {
				p = p[:len(p)-1]
				if len(p) == 0 {
					return nil
				}
				continue
			}
			top.toRead--
			t = top.E
		} else {
			if err := w.need(1, "tag type"); err != nil {
				return err
			}
			t = data[w.i]
			w.i++
			if t == nbt.TagEnd {
				if len(p) == 0 {
					return WalkError{E: ErrUnexpectedEndTag, ReadingStage: "end at the root", Offset: w.i}
				}
				if cb.CbEnd != nil {
					cb.CbEnd(p)
				}
				p = p[:len(p)-1]
				if len(p) == 0 {
					return nil
				}
				continue
			}
			if err := w.need(2, "name length"); err != nil {
				return err
			}
			ns := int(binary.BigEndian.Uint16(data[w.i:]))
			w.i += 2
			if err := w.need(ns, "name"); err != nil {
				return err
			}
			n = string(data[w.i : w.i+ns])
			w.i += ns
		}
		switch t {
		default:
			return WalkError{E: ErrUnknownTag, ReadingStage: ByteTagName(t), Offset: w.i}
		case nbt.TagByte:
			if err := w.need(1, "byte payload"); err != nil {
				return err
			}
			if cb.CbByte != nil {
				cb.CbByte(p, n, data[w.i])
			}
			w.i++
		case nbt.TagShort:
			if err := w.need(2, "short payload"); err != nil {
				return err
			}
			if cb.CbShort != nil {
				cb.CbShort(p, n, binary.BigEndian.Uint16(data[w.i:]))
			}
			w.i += 2
		case nbt.TagInt:
			if err := w.need(4, "int payload"); err != nil {
				return err
			}
			if cb.CbInt != nil {
				cb.CbInt(p, n, binary.BigEndian.Uint32(data[w.i:]))
			}
			w.i += 4
		case nbt.TagLong:
			if err := w.need(8, "long payload"); err != nil {
				return err
			}
			if cb.CbLong != nil {
				cb.CbLong(p, n, binary.BigEndian.Uint64(data[w.i:]))
			}
			w.i += 8
		case nbt.TagFloat:
			if err := w.need(4, "float payload"); err != nil {
				return err
			}
			if cb.CbFloat != nil {
				cb.CbFloat(p, n, math.Float32frombits(binary.BigEndian.Uint32(data[w.i:])))
			}
			w.i += 4
		case nbt.TagDouble:
			if err := w.need(8, "double payload"); err != nil {
				return err
			}
			if cb.CbDouble != nil {
				cb.CbDouble(p, n, math.Float64frombits(binary.BigEndian.Uint64(data[w.i:])))
			}
			w.i += 8
		case nbt.TagByteArray:
			s, err := w.size("byte array length")
			if err != nil {
				return err
			}
			if err := w.need(s, "byte array"); err != nil {
				return err
			}
			if cb.CbByteArray != nil {
				cb.CbByteArray(p, n, data[w.i:w.i+s])
			}
			w.i += s
		case nbt.TagString:
			if err := w.need(2, "string length"); err != nil {
				return err
			}
			s := int(binary.BigEndian.Uint16(data[w.i:]))
			w.i += 2
			if err := w.need(s, "string"); err != nil {
				return err
			}
			if cb.CbString != nil {
				cb.CbString(p, n, string(data[w.i:w.i+s]))
			}
			w.i += s
		case nbt.TagList:
			if err := w.need(1, "list type"); err != nil {
				return err
			}
			lt := data[w.i]
			w.i++
			if lt > nbt.TagLongArray {
				return WalkError{E: ErrUnknownTag, ReadingStage: "list element type", Offset: w.i}
			}
			ls, err := w.size("list length")
			if err != nil {
				return err
			}
			if lt == nbt.TagEnd && ls > 0 {
				return WalkError{E: ErrUnexpectedEndTag, ReadingStage: "list of TagEnd", Offset: w.i}
			}
			if cb.CbList != nil {
				cb.CbList(p, n, lt, ls)
			}
			p = append(p, NBTnode{T: nbt.TagList, N: n, S: ls, E: lt, toRead: ls})
		case nbt.TagCompound:
			if cb.CbCompound != nil {
				cb.CbCompound(p, n)
			}
			p = append(p, NBTnode{T: nbt.TagCompound, N: n})
		case nbt.TagIntArray:
			s, err := w.size("int array length")
			if err != nil {
				return err
			}
			if err := w.need(s*4, "int array"); err != nil {
				return err
			}
			arr := make([]uint32, s)
			for ii := range arr {
				arr[ii] = binary.BigEndian.Uint32(data[w.i+ii*4:])
			}
			if cb.CbIntArray != nil {
				cb.CbIntArray(p, n, arr)
			}
			w.i += s * 4
		case nbt.TagLongArray:
			s, err := w.size("long array length")
			if err != nil {
				return err
			}
			if err := w.need(s*8, "long array"); err != nil {
				return err
			}
			if cb.CbLongArray != nil {
				arr := make([]uint64, s)
				for ii := range arr {
					arr[ii] = binary.BigEndian.Uint64(data[w.i+ii*8:])
				}
				cb.CbLongArray(p, n, arr)
			}
			w.i += s * 8
		}
		if len(p) == 0 {
			// root was a primitive tag
			return nil
		}
	}
}
