package geo

import (
	"encoding/json"
	"fmt"
)

// LatLng is a geographic coordinate in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lon"`
}

// Bounds is a bounding box as reported for Overpass relations.
type Bounds struct {
	MinLat float64 `json:"minlat"`
	MinLon float64 `json:"minlon"`
	MaxLat float64 `json:"maxlat"`
	MaxLon float64 `json:"maxlon"`
}

// Center returns the rectangle center of the bounding box.
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lng: (b.MinLon + b.MaxLon) / 2,
	}
}

// Element is one raw feature record from an Overpass response. The shapes are
// mutually exclusive in practice: a node carries Lat/Lon, a way may carry an
// ordered Geometry ring, a relation may carry only Bounds, and any element
// queried with "out center" may carry a pre-computed Center.
type Element struct {
	Type     string            `json:"type"` // "node", "way" or "relation"
	ID       int64             `json:"id"`
	Lat      *float64          `json:"lat,omitempty"`
	Lon      *float64          `json:"lon,omitempty"`
	Geometry []LatLng          `json:"geometry,omitempty"`
	Bounds   *Bounds           `json:"bounds,omitempty"`
	Center   *LatLng           `json:"center,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// Name returns the element's name tag, or def when untagged.
func (e Element) Name(def string) string {
	if n := e.Tags["name"]; n != "" {
		return n
	}
	return def
}

// Geometry is a Point or Polygon in geographic coordinates. Point is set for
// GeometryPoint, Ring for GeometryPolygon.
type Geometry struct {
	Type  string
	Point LatLng
	Ring  []LatLng
}

const (
	GeometryPoint   = "Point"
	GeometryPolygon = "Polygon"
)

// MarshalJSON renders the geometry as GeoJSON ([lng, lat] coordinate order).
func (g Geometry) MarshalJSON() ([]byte, error) {
	switch g.Type {
	case GeometryPoint:
		return json.Marshal(struct {
			Type        string     `json:"type"`
			Coordinates [2]float64 `json:"coordinates"`
		}{GeometryPoint, [2]float64{g.Point.Lng, g.Point.Lat}})
	case GeometryPolygon:
		ring := make([][2]float64, len(g.Ring))
		for i, p := range g.Ring {
			ring[i] = [2]float64{p.Lng, p.Lat}
		}
		return json.Marshal(struct {
			Type        string        `json:"type"`
			Coordinates [][][2]float64 `json:"coordinates"`
		}{GeometryPolygon, [][][2]float64{ring}})
	default:
		return nil, fmt.Errorf("geo: unknown geometry type %q", g.Type)
	}
}

func pointGeometry(p LatLng) (*Geometry, *LatLng) {
	return &Geometry{Type: GeometryPoint, Point: p}, &p
}

// Extract normalizes one raw Overpass element into a (geometry, centroid)
// pair. It probes the element's shapes in priority order:
//
//  1. an ordered boundary-point sequence becomes a closed Polygon ring, with
//     the centroid at the arithmetic mean of the input points;
//  2. a relation with only a bounding box becomes a Point at the box center;
//  3. a node with direct coordinates becomes a Point there;
//  4. a pre-computed center becomes a Point there.
//
// An element matching none of these is unusable: Extract returns (nil, nil)
// and the caller drops the feature.
func Extract(el Element) (*Geometry, *LatLng) {
	if len(el.Geometry) > 0 {
		var sumLat, sumLng float64
		for _, p := range el.Geometry {
			sumLat += p.Lat
			sumLng += p.Lng
		}
		centroid := LatLng{
			Lat: sumLat / float64(len(el.Geometry)),
			Lng: sumLng / float64(len(el.Geometry)),
		}

		ring := make([]LatLng, len(el.Geometry))
		copy(ring, el.Geometry)
		if ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		return &Geometry{Type: GeometryPolygon, Ring: ring}, &centroid
	}

	if el.Type == "relation" && el.Bounds != nil {
		return pointGeometry(el.Bounds.Center())
	}

	if el.Type == "node" && el.Lat != nil && el.Lon != nil {
		return pointGeometry(LatLng{Lat: *el.Lat, Lng: *el.Lon})
	}

	if el.Center != nil {
		return pointGeometry(*el.Center)
	}

	return nil, nil
}
