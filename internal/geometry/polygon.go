// Package geometry holds the chokepoint polygon and the 2D containment test
// used for dominance counting.
package geometry

import (
	"errors"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrMalformedPolygon is matched by every MalformedPolygonError.
var ErrMalformedPolygon = errors.New("malformed polygon")

// MalformedPolygonError is returned when a polygon cannot be built from the given vertices.
type MalformedPolygonError struct {
	Reason string
}

func (e *MalformedPolygonError) Error() string {
	return "malformed polygon: " + e.Reason
}

func (e *MalformedPolygonError) Is(target error) bool { return target == ErrMalformedPolygon }

// DefaultChokepoint is the five-vertex chokepoint region of the deployment map.
var DefaultChokepoint = []geom.XY{
	{X: -2472, Y: 1233},
	{X: -1565, Y: 580},
	{X: -1735, Y: 250},
	{X: -2024, Y: 398},
	{X: -2806, Y: 742},
}

// Polygon is an immutable simple polygon. Edges are consecutive vertex pairs
// plus the wraparound edge from the last vertex back to the first.
type Polygon struct {
	vertices []geom.XY
	env      geom.Envelope
	wkt      string
}

// NewPolygon validates vertices and builds a Polygon. A trailing vertex equal
// to the first one is treated as an explicit ring closure and dropped.
func NewPolygon(vertices []geom.XY) (Polygon, error) {
	vs := make([]geom.XY, len(vertices))
	copy(vs, vertices)
	if len(vs) > 3 && vs[0] == vs[len(vs)-1] {
		vs = vs[:len(vs)-1]
	}
	if len(vs) < 3 {
		return Polygon{}, &MalformedPolygonError{Reason: fmt.Sprintf("need at least 3 vertices, got %d", len(vs))}
	}
	for i := range vs {
		next := vs[(i+1)%len(vs)]
		if vs[i] == next {
			return Polygon{}, &MalformedPolygonError{
				Reason: fmt.Sprintf("duplicate consecutive vertex (%g, %g) at index %d", next.X, next.Y, (i+1)%len(vs)),
			}
		}
	}

	flat := make([]float64, 0, 2*(len(vs)+1))
	for _, v := range vs {
		flat = append(flat, v.X, v.Y)
	}
	flat = append(flat, vs[0].X, vs[0].Y)
	ring, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return Polygon{}, &MalformedPolygonError{Reason: err.Error()}
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return Polygon{}, &MalformedPolygonError{Reason: err.Error()}
	}

	return Polygon{
		vertices: vs,
		env:      poly.Envelope(),
		wkt:      poly.AsText(),
	}, nil
}

// ParseWKT builds a Polygon from a WKT POLYGON with a single exterior ring.
func ParseWKT(wkt string) (Polygon, error) {
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return Polygon{}, &MalformedPolygonError{Reason: fmt.Sprintf("parse WKT: %v", err)}
	}
	poly, ok := g.AsPolygon()
	if !ok {
		return Polygon{}, &MalformedPolygonError{Reason: fmt.Sprintf("expected POLYGON, got %s", g.Type())}
	}
	if poly.NumInteriorRings() > 0 {
		return Polygon{}, &MalformedPolygonError{Reason: "interior rings are not supported"}
	}
	seq := poly.ExteriorRing().Coordinates()
	vs := make([]geom.XY, seq.Length())
	for i := range vs {
		vs[i] = seq.GetXY(i)
	}
	return NewPolygon(vs)
}

// MustDefault returns the built-in chokepoint polygon.
func MustDefault() Polygon {
	p, err := NewPolygon(DefaultChokepoint)
	if err != nil {
		panic(err)
	}
	return p
}

// Vertices returns a copy of the polygon's vertices in edge order.
func (p Polygon) Vertices() []geom.XY {
	out := make([]geom.XY, len(p.vertices))
	copy(out, p.vertices)
	return out
}

// WKT returns the polygon as WKT text.
func (p Polygon) WKT() string { return p.wkt }

// Contains reports whether pt is inside the polygon by the even-odd rule.
// Points outside the bounding box are rejected without walking the edges.
func (p Polygon) Contains(pt geom.XY) bool {
	if len(p.vertices) == 0 || !p.env.Contains(pt) {
		return false
	}
	return Contains(pt, p.vertices)
}

// Contains is the raw ray-casting test over a vertex ring. Points exactly on
// an edge get whatever the sign comparisons yield.
func Contains(pt geom.XY, vertices []geom.XY) bool {
	inside := false
	x, y := pt.X, pt.Y
	for i := range vertices {
		x1, y1 := vertices[i].X, vertices[i].Y
		x2, y2 := vertices[(i+1)%len(vertices)].X, vertices[(i+1)%len(vertices)].Y
		if (y1 > y) != (y2 > y) {
			slope := (x-x1)*(y2-y1) - (x2-x1)*(y-y1)
			if (y1 > y2) != (slope < 0) {
				inside = !inside
			}
		}
	}
	return inside
}
