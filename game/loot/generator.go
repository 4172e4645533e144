// Package loot decides how many lost objects appear on a map as game time
// passes.
package loot

import (
	"math"
	"time"
)

// RandomFactor scales the generation probability. The default factor always
// returns 1, making generation deterministic.
type RandomFactor func() float64

// Generator produces new lost objects with probability p within each base
// interval, accumulating time across ticks so that slow tick rates and fast
// tick rates converge to the same spawn rate.
type Generator struct {
	baseInterval time.Duration
	probability  float64
	accumulated  time.Duration
	random       RandomFactor
}

// NewGenerator creates a generator that spawns objects with the given
// probability per base interval.
func NewGenerator(baseInterval time.Duration, probability float64) *Generator {
	return NewGeneratorWithRandom(baseInterval, probability, func() float64 { return 1 })
}

// NewGeneratorWithRandom creates a generator whose spawn probability is
// scaled by random on every call.
func NewGeneratorWithRandom(baseInterval time.Duration, probability float64, random RandomFactor) *Generator {
	return &Generator{
		baseInterval: baseInterval,
		probability:  probability,
		random:       random,
	}
}

// Generate returns how many objects to spawn after delta has elapsed, given
// the number of objects already on the ground and the number of looters in
// the session. The spawn count never exceeds the number of looters lacking
// an object.
func (g *Generator) Generate(delta time.Duration, lootCount, looterCount int) int {
	g.accumulated += delta

	ratio := g.accumulated.Seconds() / g.baseInterval.Seconds()
	p := clampProbability((1 - math.Pow(1-g.probability, ratio)) * g.random())
	generated := int(math.Floor(float64(looterCount) * p))
	if generated <= lootCount {
		// Nothing spawns while the ground is saturated; the elapsed time
		// stays banked so loot reappears as soon as there is room.
		return 0
	}
	g.accumulated = 0
	return generated - lootCount
}

func clampProbability(p float64) float64 {
	return math.Min(math.Max(p, 0), 1)
}
