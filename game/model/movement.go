package model

import "github.com/fetchworks/lostandfound/game/geom"

// MoveDog advances a dog from pos by speed over dt seconds, keeping it on
// the road network. When the candidate position leaves the street area the
// dog is pushed to the farthest reachable edge along dir and reported as
// stopped; the caller zeroes its velocity.
func (m *Map) MoveDog(pos geom.Point2D, speed geom.Vec2D, dir Direction, dt float64) (next geom.Point2D, stopped bool) {
	if speed.IsZero() {
		return pos, false
	}
	candidate := pos.Translate(speed, dt)
	if m.OnRoads(candidate) {
		return candidate, false
	}

	roads := m.RoadsAt(pos)
	next = pos
	switch dir {
	case East:
		next.X = roadsExtremum(roads, func(min, max geom.Point2D) float64 { return max.X }, true)
	case West:
		next.X = roadsExtremum(roads, func(min, max geom.Point2D) float64 { return min.X }, false)
	case South:
		next.Y = roadsExtremum(roads, func(min, max geom.Point2D) float64 { return max.Y }, true)
	case North:
		next.Y = roadsExtremum(roads, func(min, max geom.Point2D) float64 { return min.Y }, false)
	}
	return next, true
}

// roadsExtremum folds the chosen bound coordinate over the roads, taking
// the maximum when wantMax is set and the minimum otherwise.
func roadsExtremum(roads []Road, coord func(min, max geom.Point2D) float64, wantMax bool) float64 {
	best := coord(roads[0].Bounds())
	for _, r := range roads[1:] {
		v := coord(r.Bounds())
		if wantMax && v > best || !wantMax && v < best {
			best = v
		}
	}
	return best
}
