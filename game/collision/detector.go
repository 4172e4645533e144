// Package collision implements swept collision detection between moving
// gatherers and stationary items on the map plane.
package collision

import (
	"sort"

	"github.com/fetchworks/lostandfound/game/geom"
)

// Item is a stationary circle a gatherer can run over: a lost object or an
// office.
type Item struct {
	Pos    geom.Point2D
	Radius float64
}

// Gatherer is a circle moving in a straight line during one tick.
type Gatherer struct {
	Start  geom.Point2D
	End    geom.Point2D
	Radius float64
}

// Event records one gatherer reaching one item. Time is the fraction of the
// gatherer's path travelled at the moment of closest approach, in [0, 1].
type Event struct {
	ItemIndex     int
	GathererIndex int
	SqDistance    float64
	Time          float64
}

// pointGather projects point c onto the segment a-b. It reports the squared
// distance from c to the segment line and the projection ratio along a-b.
// ok is false when the closest approach falls outside the segment or the
// segment is degenerate.
func pointGather(a, b, c geom.Point2D) (sqDist, ratio float64, ok bool) {
	path := b.Sub(a)
	if path.IsZero() {
		return 0, 0, false
	}
	toItem := c.Sub(a)
	ratio = toItem.Dot(path) / path.SqLen()
	if ratio < 0 || ratio > 1 {
		return 0, 0, false
	}
	closest := a.Translate(path, ratio)
	return c.Sub(closest).SqLen(), ratio, true
}

// FindGatherEvents returns every item a gatherer touches while moving from
// its start to its end, ordered by event time. A gatherer that does not
// move produces no events.
func FindGatherEvents(gatherers []Gatherer, items []Item) []Event {
	var events []Event
	for g, gatherer := range gatherers {
		if gatherer.End.Sub(gatherer.Start).IsZero() {
			continue
		}
		for i, item := range items {
			sqDist, ratio, ok := pointGather(gatherer.Start, gatherer.End, item.Pos)
			if !ok {
				continue
			}
			reach := gatherer.Radius + item.Radius
			if sqDist > reach*reach {
				continue
			}
			events = append(events, Event{
				ItemIndex:     i,
				GathererIndex: g,
				SqDistance:    sqDist,
				Time:          ratio,
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})
	return events
}
