package feature

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// encodePoint returns the EWKB encoding of (lon, lat) with SRID 4326.
func encodePoint(lat, lon float64) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(SRID)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "feature: encode point")
	}
	return data, nil
}

// decodePoint extracts (lat, lon) from an EWKB point.
func decodePoint(data []byte) (lat, lon float64, err error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return 0, 0, eris.Wrap(err, "feature: decode point")
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return 0, 0, eris.Errorf("feature: expected point, got %T", g)
	}
	return p.Y(), p.X(), nil
}

// polygonGeoJSON converts an EWKB polygon into a GeoJSON geometry.
func polygonGeoJSON(data []byte) (json.RawMessage, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "feature: decode footprint")
	}
	if _, ok := g.(*geom.Polygon); !ok {
		return nil, eris.Errorf("feature: expected polygon footprint, got %T", g)
	}
	out, err := geojson.Marshal(g)
	if err != nil {
		return nil, eris.Wrap(err, "feature: encode footprint geojson")
	}
	return out, nil
}
