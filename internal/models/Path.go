package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
)

// ErrPathNotList is returned when a route path does not decode to a JSON array.
var ErrPathNotList = errors.New("route path must be a list")

// Path is an ordered list of points as sent by the client. Each point is kept as compact
// raw JSON, so encoding a decoded path reproduces the same values in the same order.
type Path []json.RawMessage

// Bounds is the bounding box of a path in degrees.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// ParsePath parses client input. raw may be a JSON array or a JSON string that holds one.
// Blank input (absent, null, empty string) yields a nil path and no error.
func ParsePath(raw []byte) (Path, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPathNotList, err)
		}
		raw = bytes.TrimSpace([]byte(s))
		if len(raw) == 0 {
			return nil, nil
		}
	}
	if raw[0] != '[' {
		return nil, fmt.Errorf("%w: got %q", ErrPathNotList, firstToken(raw))
	}

	var points []json.RawMessage
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathNotList, err)
	}
	p := make(Path, 0, len(points))
	for _, pt := range points {
		var buf bytes.Buffer
		if err := json.Compact(&buf, pt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPathNotList, err)
		}
		p = append(p, json.RawMessage(buf.Bytes()))
	}
	return p, nil
}

// DecodePath reads a stored path. Stored data that is empty, malformed or not a list
// degrades to an empty path.
func DecodePath(stored []byte) Path {
	p, err := ParsePath(stored)
	if err != nil || p == nil {
		return Path{}
	}
	return p
}

// Encode serializes the path for storage.
func (p Path) Encode() ([]byte, error) {
	if p == nil {
		p = Path{}
	}
	return json.Marshal([]json.RawMessage(p))
}

// Equal reports whether both paths hold structurally identical points. Numbers compare by
// their decoded float64 value; no coordinate tolerance is applied.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		var a, b any
		if json.Unmarshal(p[i], &a) != nil || json.Unmarshal(other[i], &b) != nil {
			return false
		}
		if !reflect.DeepEqual(a, b) {
			return false
		}
	}
	return true
}

// LineString converts the path to a geometry when every point is a [lat, lng] pair or a
// {lat,lng} / {latitude,longitude} object. Coordinates are stored in lng/lat order.
func (p Path) LineString() (*geom.LineString, bool) {
	if len(p) < 2 {
		return nil, false
	}
	flat := make([]float64, 0, 2*len(p))
	for _, pt := range p {
		lat, lng, ok := pointLatLng(pt)
		if !ok {
			return nil, false
		}
		flat = append(flat, lng, lat)
	}
	return geom.NewLineStringFlat(geom.XY, flat), true
}

// GeoJSON returns the path as a GeoJSON LineString, or nil when it has no geometry.
func (p Path) GeoJSON() json.RawMessage {
	ls, ok := p.LineString()
	if !ok {
		return nil
	}
	b, err := gjson.Marshal(ls)
	if err != nil {
		return nil
	}
	return b
}

// Bounds returns the bounding box of the path, or nil when it has no geometry.
func (p Path) Bounds() *Bounds {
	ls, ok := p.LineString()
	if !ok {
		return nil
	}
	b := ls.Bounds()
	return &Bounds{
		MinLat: b.Min(1),
		MinLng: b.Min(0),
		MaxLat: b.Max(1),
		MaxLng: b.Max(0),
	}
}

func pointLatLng(pt json.RawMessage) (lat, lng float64, ok bool) {
	pt = bytes.TrimSpace(pt)
	if len(pt) == 0 {
		return 0, 0, false
	}
	switch pt[0] {
	case '[':
		var pair []float64
		if err := json.Unmarshal(pt, &pair); err != nil || len(pair) < 2 {
			return 0, 0, false
		}
		return pair[0], pair[1], true
	case '{':
		var obj struct {
			Lat       *float64 `json:"lat"`
			Lng       *float64 `json:"lng"`
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		}
		if err := json.Unmarshal(pt, &obj); err != nil {
			return 0, 0, false
		}
		if obj.Lat != nil && obj.Lng != nil {
			return *obj.Lat, *obj.Lng, true
		}
		if obj.Latitude != nil && obj.Longitude != nil {
			return *obj.Latitude, *obj.Longitude, true
		}
	}
	return 0, 0, false
}

func firstToken(raw []byte) string {
	if len(raw) > 16 {
		return string(raw[:16]) + "..."
	}
	return string(raw)
}
