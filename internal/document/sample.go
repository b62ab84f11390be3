package document

import (
	"time"

	"github.com/inamate/geoshape/internal/typeid"
)

// Sample scene around Zurich.
const (
	sampleLat = 47.3769
	sampleLon = 8.5417
)

func boolPtr(b bool) *bool { return &b }

// rect returns a closed counter-clockwise ring of size degrees centered on
// lat, lon.
func rect(lat, lon, dLat, dLon float64) []Location {
	return []Location{
		{Lat: lat - dLat/2, Lon: lon - dLon/2},
		{Lat: lat - dLat/2, Lon: lon + dLon/2},
		{Lat: lat + dLat/2, Lon: lon + dLon/2},
		{Lat: lat + dLat/2, Lon: lon - dLon/2},
		{Lat: lat - dLat/2, Lon: lon - dLon/2},
	}
}

func NewSampleScene(sceneID string) *Scene {
	now := time.Now().UTC().Format(time.RFC3339)

	buildingsID := typeid.NewLayerID()
	areasID := typeid.NewLayerID()
	routesID := typeid.NewLayerID()

	courtyard := [][]Location{
		rect(sampleLat, sampleLon, 0.002, 0.003),
		rect(sampleLat, sampleLon, 0.0008, 0.0012),
	}

	return &Scene{
		ID:        sceneID,
		Name:      "Zurich",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		View: View{
			Eye:         Location{Lat: sampleLat - 0.03, Lon: sampleLon, Alt: 3000},
			Target:      Location{Lat: sampleLat, Lon: sampleLon},
			FieldOfView: 45,
			Width:       1280,
			Height:      720,
		},
		Terrain: Terrain{Elevation: 408, VerticalExaggeration: 1},
		Layers: []Layer{
			{
				ID:      areasID,
				Name:    "Areas",
				Opacity: 0.6,
				Shapes: []Shape{
					{
						ID:           typeid.NewShapeID(),
						Type:         ShapeTypePolygon,
						Name:         "Park",
						Boundaries:   [][]Location{rect(sampleLat+0.004, sampleLon-0.004, 0.003, 0.004)},
						AltitudeMode: "clampToGround",
						Attributes: &Attributes{
							InteriorColor: "#53d769cc",
							DrawOutline:   boolPtr(false),
						},
					},
					{
						ID:           typeid.NewShapeID(),
						Type:         ShapeTypePolygon,
						Name:         "Lake",
						Boundaries:   [][]Location{rect(sampleLat-0.006, sampleLon+0.003, 0.004, 0.008)},
						AltitudeMode: "clampToGround",
						Attributes: &Attributes{
							InteriorColor: "#0f3460ff",
							OutlineColor:  "#16213eff",
						},
					},
				},
			},
			{
				ID:      buildingsID,
				Name:    "Buildings",
				Opacity: 1,
				Shapes: []Shape{
					{
						ID:           typeid.NewShapeID(),
						Type:         ShapeTypeExtrudedPolygon,
						Name:         "Courtyard block",
						Boundaries:   courtyard,
						AltitudeMode: "relativeToGround",
						Height:       25,
						Attributes: &Attributes{
							InteriorColor:  "#e94560ff",
							EnableLighting: boolPtr(true),
						},
						SideAttributes: &Attributes{
							InteriorColor:  "#c78400ff",
							EnableLighting: boolPtr(true),
						},
					},
					{
						ID:           typeid.NewShapeID(),
						Type:         ShapeTypeExtrudedPolygon,
						Name:         "Tower",
						Boundaries:   [][]Location{rect(sampleLat+0.002, sampleLon+0.004, 0.0006, 0.0008)},
						AltitudeMode: "relativeToGround",
						Height:       90,
						Attributes: &Attributes{
							InteriorColor:  "#bd10e0ff",
							EnableLighting: boolPtr(true),
						},
					},
				},
			},
			{
				ID:      routesID,
				Name:    "Routes",
				Opacity: 1,
				Shapes: []Shape{
					{
						ID:   typeid.NewShapeID(),
						Type: ShapeTypePath,
						Name: "Tram",
						Positions: []Location{
							{Lat: sampleLat - 0.008, Lon: sampleLon - 0.006, Alt: 10},
							{Lat: sampleLat - 0.002, Lon: sampleLon - 0.002, Alt: 10},
							{Lat: sampleLat + 0.003, Lon: sampleLon + 0.001, Alt: 10},
							{Lat: sampleLat + 0.008, Lon: sampleLon + 0.007, Alt: 10},
						},
						AltitudeMode:  "relativeToGround",
						PathType:      "linear",
						FollowTerrain: true,
						Extrude:       true,
						Attributes: &Attributes{
							InteriorColor: "#f5a62366",
							OutlineColor:  "#f5a623ff",
							OutlineWidth:  3,
						},
					},
				},
			},
		},
	}
}
