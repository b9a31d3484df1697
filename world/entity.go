package world

import "strings"

// TextSpan is a run of sign text sharing one style.
type TextSpan struct {
	Text          string `json:"text"`
	Color         string `json:"color,omitempty"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underlined    bool   `json:"underlined,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Obfuscated    bool   `json:"obfuscated,omitempty"`
}

type TextLine []TextSpan

func (l TextLine) String() string {
	var sb strings.Builder
	for _, s := range l {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

const SignLines = 4

// SignText is one side of a sign.
type SignText [SignLines]TextLine

func (t SignText) IsEmpty() bool {
	for _, l := range t {
		for _, s := range l {
			if s.Text != "" {
				return false
			}
		}
	}
	return true
}

// String joins the lines with newlines, trailing empty lines dropped.
func (t SignText) String() string {
	lines := make([]string, 0, SignLines)
	for _, l := range t {
		lines = append(lines, l.String())
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

type Sign struct {
	Material  string
	FrontText SignText
	BackText  SignText
}

// DisplayText is the front text followed by the back text when it has
// any.
func (s *Sign) DisplayText() string {
	front := s.FrontText.String()
	if s.BackText.IsEmpty() {
		return front
	}
	return front + "\n" + s.BackText.String()
}

type BlockEntityType string

const (
	BlockEntitySign        BlockEntityType = "sign"
	BlockEntityHangingSign BlockEntityType = "hanging_sign"
)

// BlockEntity is a block entity collected for the viewer, absolute
// block coordinates.
type BlockEntity struct {
	Type    BlockEntityType
	X, Y, Z int32
	Sign    *Sign
}

// DisplayText is empty for block entities that carry no text.
func (e *BlockEntity) DisplayText() string {
	if e.Sign == nil {
		return ""
	}
	return e.Sign.DisplayText()
}

// ProcessedEntities holds the collected block entities of one region,
// or of the whole world once merged.
type ProcessedEntities struct {
	BlockEntities []BlockEntity
}
