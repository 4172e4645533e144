package model

import "github.com/fetchworks/lostandfound/game/geom"

// RoadHalfWidth is the half-width of every road. A road's walkable area is
// its segment's bounding box expanded by this margin on all sides.
const RoadHalfWidth = 0.4

// Point is an integer grid coordinate used by map geometry.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is an integer extent of a rectangle.
type Size struct {
	Width  int `json:"w"`
	Height int `json:"h"`
}

// Rectangle is an axis-aligned integer rectangle.
type Rectangle struct {
	Position Point `json:"position"`
	Size     Size  `json:"size"`
}

// Offset is an integer display offset.
type Offset struct {
	DX int `json:"offsetX"`
	DY int `json:"offsetY"`
}

// Road is an axis-aligned segment of the road network with integer
// endpoints. Horizontal roads share a Y coordinate, vertical roads an X
// coordinate.
type Road struct {
	start Point
	end   Point
}

// NewHorizontalRoad builds a road from start to (endX, start.Y).
func NewHorizontalRoad(start Point, endX int) Road {
	return Road{start: start, end: Point{X: endX, Y: start.Y}}
}

// NewVerticalRoad builds a road from start to (start.X, endY).
func NewVerticalRoad(start Point, endY int) Road {
	return Road{start: start, end: Point{X: start.X, Y: endY}}
}

// IsHorizontal reports whether the road runs along the X axis.
func (r Road) IsHorizontal() bool { return r.start.Y == r.end.Y }

// IsVertical reports whether the road runs along the Y axis.
func (r Road) IsVertical() bool { return r.start.X == r.end.X }

// Start returns the integer start point.
func (r Road) Start() Point { return r.start }

// End returns the integer end point.
func (r Road) End() Point { return r.end }

// StartPos returns the start point as a continuous position.
func (r Road) StartPos() geom.Point2D {
	return geom.Point2D{X: float64(r.start.X), Y: float64(r.start.Y)}
}

// EndPos returns the end point as a continuous position.
func (r Road) EndPos() geom.Point2D {
	return geom.Point2D{X: float64(r.end.X), Y: float64(r.end.Y)}
}

// Bounds returns the walkable bounding box of the road, expanded by the
// road half-width.
func (r Road) Bounds() (min, max geom.Point2D) {
	minX, maxX := float64(r.start.X), float64(r.end.X)
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := float64(r.start.Y), float64(r.end.Y)
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	min = geom.Point2D{X: minX - RoadHalfWidth, Y: minY - RoadHalfWidth}
	max = geom.Point2D{X: maxX + RoadHalfWidth, Y: maxY + RoadHalfWidth}
	return min, max
}

// Contains reports whether pos lies inside the road's walkable area.
func (r Road) Contains(pos geom.Point2D) bool {
	min, max := r.Bounds()
	return pos.X >= min.X && pos.X <= max.X && pos.Y >= min.Y && pos.Y <= max.Y
}
