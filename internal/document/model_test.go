package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/geoshape/internal/typeid"
)

func TestSampleSceneIsValid(t *testing.T) {
	scene := NewSampleScene(typeid.NewSceneID())
	require.NoError(t, scene.Validate())
	require.Len(t, scene.Layers, 3)

	var kinds []ShapeType
	for _, l := range scene.Layers {
		require.NoError(t, typeid.Validate(l.ID, typeid.PrefixLayer))
		for _, sh := range l.Shapes {
			require.NoError(t, typeid.Validate(sh.ID, typeid.PrefixShape))
			kinds = append(kinds, sh.Type)
		}
	}
	assert.Contains(t, kinds, ShapeTypePolygon)
	assert.Contains(t, kinds, ShapeTypeExtrudedPolygon)
	assert.Contains(t, kinds, ShapeTypePath)
}

func TestSceneJSONRoundTripKeepsUnsetAttributes(t *testing.T) {
	scene := NewSampleScene("scene_1")
	data, err := json.Marshal(scene)
	require.NoError(t, err)

	var decoded Scene
	require.NoError(t, json.Unmarshal(data, &decoded))
	park, _, err := decoded.FindShape(scene.Layers[0].Shapes[0].ID)
	require.NoError(t, err)
	require.NotNil(t, park.Attributes)
	assert.Nil(t, park.Attributes.DrawInterior)
	require.NotNil(t, park.Attributes.DrawOutline)
	assert.False(t, *park.Attributes.DrawOutline)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		scene Scene
	}{
		{"layer without id", Scene{Layers: []Layer{{}}}},
		{"duplicate layer", Scene{Layers: []Layer{{ID: "a"}, {ID: "a"}}}},
		{"shape without id", Scene{Layers: []Layer{{ID: "a", Shapes: []Shape{{Type: ShapeTypePath}}}}}},
		{"duplicate shape", Scene{Layers: []Layer{
			{ID: "a", Shapes: []Shape{{ID: "s", Type: ShapeTypePath}}},
			{ID: "b", Shapes: []Shape{{ID: "s", Type: ShapeTypePath}}},
		}}},
		{"unknown type", Scene{Layers: []Layer{{ID: "a", Shapes: []Shape{{ID: "s", Type: "circle"}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.scene.Validate(), ErrInvalidScene)
		})
	}
}

func TestUpsertAndRemoveShape(t *testing.T) {
	scene := NewEmptyScene("scene_1", "test", "a")
	scene.Layers = append(scene.Layers, Layer{ID: "b", Opacity: 1})

	require.NoError(t, scene.UpsertShape("a", Shape{ID: "s1", Type: ShapeTypePolygon, Name: "one"}))
	require.NoError(t, scene.UpsertShape("a", Shape{ID: "s1", Type: ShapeTypePolygon, Name: "renamed"}))
	sh, l, err := scene.FindShape("s1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", sh.Name)
	assert.Equal(t, "a", l.ID)
	assert.Len(t, scene.Layers[0].Shapes, 1)

	require.NoError(t, scene.UpsertShape("b", Shape{ID: "s1", Type: ShapeTypePolygon}))
	_, l, err = scene.FindShape("s1")
	require.NoError(t, err)
	assert.Equal(t, "b", l.ID)
	assert.Empty(t, scene.Layers[0].Shapes)

	assert.ErrorIs(t, scene.UpsertShape("missing", Shape{ID: "s2"}), ErrLayerNotFound)

	assert.True(t, scene.RemoveShape("s1"))
	assert.False(t, scene.RemoveShape("s1"))
	_, _, err = scene.FindShape("s1")
	assert.ErrorIs(t, err, ErrShapeNotFound)
}

func TestCloneIsIndependent(t *testing.T) {
	scene := NewEmptyScene("scene_1", "test", "a")
	require.NoError(t, scene.UpsertShape("a", Shape{ID: "s1", Type: ShapeTypePath}))

	c := scene.Clone()
	c.Layers[0].Shapes[0].Name = "changed"
	c.Layers[0].Name = "other"
	assert.Empty(t, scene.Layers[0].Shapes[0].Name)
	assert.Equal(t, "Shapes", scene.Layers[0].Name)
}
