// Package geom provides the small 2D primitives shared by the world model
// and the collision detector.
package geom

// Point2D is a continuous position on the map plane.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec2D is a velocity or displacement in road units per second.
type Vec2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsZero reports whether the vector has no magnitude.
func (v Vec2D) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Translate returns the point moved by v over dt seconds.
func (p Point2D) Translate(v Vec2D, dt float64) Point2D {
	return Point2D{X: p.X + v.X*dt, Y: p.Y + v.Y*dt}
}

// Sub returns the displacement from q to p.
func (p Point2D) Sub(q Point2D) Vec2D {
	return Vec2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dot returns the dot product of two vectors.
func (v Vec2D) Dot(w Vec2D) float64 {
	return v.X*w.X + v.Y*w.Y
}

// SqLen returns the squared length of the vector.
func (v Vec2D) SqLen() float64 {
	return v.Dot(v)
}
