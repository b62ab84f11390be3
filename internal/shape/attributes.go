package shape

import (
	"fmt"

	"github.com/jinzhu/copier"

	"github.com/inamate/geoshape/internal/render"
)

// Attributes control how a shape is drawn.
type Attributes struct {
	DrawInterior   bool
	DrawOutline    bool
	InteriorColor  render.Color
	OutlineColor   render.Color
	OutlineWidth   float64
	EnableLighting bool
	// ImageSource is the asset ID of a texture applied to the interior.
	ImageSource string
}

func DefaultAttributes() *Attributes {
	return &Attributes{
		DrawInterior:  true,
		DrawOutline:   true,
		InteriorColor: render.Color{R: 1, G: 1, B: 1, A: 1},
		OutlineColor:  render.Color{R: 0, G: 0, B: 0, A: 1},
		OutlineWidth:  1,
	}
}

func DefaultHighlightAttributes() *Attributes {
	return &Attributes{
		DrawInterior:  true,
		DrawOutline:   true,
		InteriorColor: render.Color{R: 1, G: 1, B: 1, A: 1},
		OutlineColor:  render.Color{R: 1, G: 0, B: 0, A: 1},
		OutlineWidth:  2,
	}
}

// Shared fallbacks for shapes without their own attributes. Never modified.
var (
	defaultAttributes          = DefaultAttributes()
	defaultHighlightAttributes = DefaultHighlightAttributes()
)

// resolveAttributes overwrites dst with the attributes in effect for this
// frame. dst is reused across frames.
func resolveAttributes(dst, normal, highlight *Attributes, highlighted bool) error {
	src := normal
	if src == nil {
		src = defaultAttributes
	}
	if highlighted {
		src = highlight
		if src == nil {
			src = defaultHighlightAttributes
		}
	}
	if err := copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true}); err != nil {
		return fmt.Errorf("resolve attributes: %w", err)
	}
	return nil
}
