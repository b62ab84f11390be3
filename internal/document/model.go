package document

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrShapeNotFound = errors.New("shape not found")
	ErrLayerNotFound = errors.New("layer not found")
	ErrInvalidScene  = errors.New("invalid scene")
)

// Scene is the persisted description of everything drawn on the globe.
type Scene struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Version   int     `json:"version"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
	View      View    `json:"view"`
	Terrain   Terrain `json:"terrain"`
	Layers    []Layer `json:"layers"`
}

// Location is a geographic position in degrees and meters.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt,omitempty"`
}

type View struct {
	Eye    Location `json:"eye"`
	Target Location `json:"target"`

	// FieldOfView is the vertical field of view in degrees.
	FieldOfView float64 `json:"fieldOfView"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// Terrain describes the elevation model shapes are placed on.
type Terrain struct {
	// Elevation is a constant terrain height in meters.
	Elevation float64 `json:"elevation"`

	VerticalExaggeration float64 `json:"verticalExaggeration"`
}

type Layer struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Disabled     bool    `json:"disabled,omitempty"`
	PickDisabled bool    `json:"pickDisabled,omitempty"`
	Opacity      float64 `json:"opacity"`
	Shapes       []Shape `json:"shapes"`
}

type ShapeType string

const (
	ShapeTypePolygon         ShapeType = "polygon"
	ShapeTypeExtrudedPolygon ShapeType = "extrudedPolygon"
	ShapeTypePath            ShapeType = "path"
)

// Attributes are drawing attributes. Unset fields keep their defaults.
type Attributes struct {
	DrawInterior   *bool   `json:"drawInterior,omitempty"`
	DrawOutline    *bool   `json:"drawOutline,omitempty"`
	InteriorColor  string  `json:"interiorColor,omitempty"`
	OutlineColor   string  `json:"outlineColor,omitempty"`
	OutlineWidth   float64 `json:"outlineWidth,omitempty"`
	EnableLighting *bool   `json:"enableLighting,omitempty"`
	ImageSource    string  `json:"imageSource,omitempty"`
}

type Shape struct {
	ID   string    `json:"id"`
	Type ShapeType `json:"type"`
	Name string    `json:"name,omitempty"`

	// Boundaries holds the outer ring followed by holes (polygons).
	Boundaries [][]Location `json:"boundaries,omitempty"`

	// Positions holds the path vertices (paths).
	Positions []Location `json:"positions,omitempty"`

	Reference *Location    `json:"reference,omitempty"`
	TexCoords [][2]float32 `json:"texCoords,omitempty"`

	AltitudeMode  string  `json:"altitudeMode,omitempty"`
	Height        float64 `json:"height,omitempty"`
	PathType      string  `json:"pathType,omitempty"`
	Extrude       bool    `json:"extrude,omitempty"`
	FollowTerrain bool    `json:"followTerrain,omitempty"`

	Attributes              *Attributes `json:"attributes,omitempty"`
	HighlightAttributes     *Attributes `json:"highlightAttributes,omitempty"`
	SideAttributes          *Attributes `json:"sideAttributes,omitempty"`
	SideHighlightAttributes *Attributes `json:"sideHighlightAttributes,omitempty"`

	Highlighted     bool `json:"highlighted,omitempty"`
	Hidden          bool `json:"hidden,omitempty"`
	DisableBatching bool `json:"disableBatching,omitempty"`
}

// Validate checks structural consistency. Geometric validity of rings is
// checked when shapes are built.
func (s *Scene) Validate() error {
	layers := make(map[string]bool, len(s.Layers))
	shapes := make(map[string]bool)
	for _, l := range s.Layers {
		if l.ID == "" {
			return fmt.Errorf("%w: layer without id", ErrInvalidScene)
		}
		if layers[l.ID] {
			return fmt.Errorf("%w: duplicate layer %s", ErrInvalidScene, l.ID)
		}
		layers[l.ID] = true
		for _, sh := range l.Shapes {
			if sh.ID == "" {
				return fmt.Errorf("%w: shape without id in layer %s", ErrInvalidScene, l.ID)
			}
			if shapes[sh.ID] {
				return fmt.Errorf("%w: duplicate shape %s", ErrInvalidScene, sh.ID)
			}
			shapes[sh.ID] = true
			switch sh.Type {
			case ShapeTypePolygon, ShapeTypeExtrudedPolygon, ShapeTypePath:
			default:
				return fmt.Errorf("%w: shape %s has unknown type %q", ErrInvalidScene, sh.ID, sh.Type)
			}
		}
	}
	return nil
}

// Layer returns the layer with the given ID.
func (s *Scene) Layer(id string) (*Layer, error) {
	for i := range s.Layers {
		if s.Layers[i].ID == id {
			return &s.Layers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
}

// FindShape returns the shape with the given ID and the layer holding it.
func (s *Scene) FindShape(id string) (*Shape, *Layer, error) {
	for i := range s.Layers {
		l := &s.Layers[i]
		for j := range l.Shapes {
			if l.Shapes[j].ID == id {
				return &l.Shapes[j], l, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrShapeNotFound, id)
}

// UpsertShape replaces the shape with the same ID or appends it to the
// layer. A shape moving between layers is removed from its old layer.
func (s *Scene) UpsertShape(layerID string, shape Shape) error {
	target, err := s.Layer(layerID)
	if err != nil {
		return err
	}
	if existing, l, err := s.FindShape(shape.ID); err == nil {
		if l.ID == layerID {
			*existing = shape
			return nil
		}
		s.RemoveShape(shape.ID)
	}
	target.Shapes = append(target.Shapes, shape)
	return nil
}

// RemoveShape deletes a shape and reports whether it existed.
func (s *Scene) RemoveShape(id string) bool {
	for i := range s.Layers {
		l := &s.Layers[i]
		if j := slices.IndexFunc(l.Shapes, func(sh Shape) bool { return sh.ID == id }); j >= 0 {
			l.Shapes = slices.Delete(l.Shapes, j, j+1)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	out := *s
	out.Layers = make([]Layer, len(s.Layers))
	for i, l := range s.Layers {
		l.Shapes = slices.Clone(l.Shapes)
		out.Layers[i] = l
	}
	return &out
}

// NewEmptyScene creates a scene with one empty layer looking at lat, lon.
func NewEmptyScene(sceneID, name, layerID string) *Scene {
	return &Scene{
		ID:      sceneID,
		Name:    name,
		Version: 1,
		View: View{
			Eye:         Location{Lat: 0, Lon: 0, Alt: 1e7},
			Target:      Location{Lat: 0, Lon: 0},
			FieldOfView: 45,
			Width:       1280,
			Height:      720,
		},
		Terrain: Terrain{VerticalExaggeration: 1},
		Layers: []Layer{
			{ID: layerID, Name: "Shapes", Opacity: 1, Shapes: []Shape{}},
		},
	}
}
