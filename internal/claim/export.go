package claim

import (
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"
	kml "github.com/twpayne/go-kml/v3"
)

// Feature renders the claim as a GeoJSON feature with its metrics as
// properties.
func Feature(cl Claim) *geojson.Feature {
	f := geojson.NewFeature(cl.Boundary)
	f.ID = cl.ID
	f.Properties["session_id"] = cl.SessionID
	f.Properties["generation"] = cl.Generation
	f.Properties["user_id"] = cl.UserID
	f.Properties["area_m2"] = cl.AreaM2
	f.Properties["geodesic_area_m2"] = cl.GeodesicAreaM2
	f.Properties["perimeter_m"] = cl.PerimeterM
	f.Properties["point_count"] = cl.PointCount
	return f
}

func FeatureCollection(claims []Claim) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, cl := range claims {
		fc.Append(Feature(cl))
	}
	return fc
}

// WriteKML writes the claim as a single polygon placemark.
func WriteKML(w io.Writer, cl Claim) error {
	var rings []kml.Element
	for i, ring := range cl.Boundary {
		coords := make([]kml.Coordinate, len(ring))
		for j, p := range ring {
			coords[j] = kml.Coordinate{Lon: p.Lon(), Lat: p.Lat()}
		}
		lr := kml.LinearRing(kml.Coordinates(coords...))
		if i == 0 {
			rings = append(rings, kml.OuterBoundaryIs(lr))
		} else {
			rings = append(rings, kml.InnerBoundaryIs(lr))
		}
	}

	description := fmt.Sprintf("area %.0f m², perimeter %.0f m, %d points", cl.AreaM2, cl.PerimeterM, cl.PointCount)
	doc := kml.KML(
		kml.Document(
			kml.Name("Territory "+cl.ID),
			kml.Placemark(
				kml.Name(cl.ID),
				kml.Description(description),
				kml.Polygon(rings...),
			),
		),
	)
	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("write kml: %w", err)
	}
	return nil
}
