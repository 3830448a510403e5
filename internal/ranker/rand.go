package ranker

import "math/rand"

// Rand is the source of the explore-vs-exploit draw. Injected so tests can
// force either branch; production uses the shared unseeded source, which
// makes the draw independent per request.
type Rand interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }

func (systemRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }
