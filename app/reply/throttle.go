package reply

import (
	"math/rand/v2"
	"sync"
	"time"
)

// SuppressProbability is the chance that a composed keyword reply is not sent.
const SuppressProbability = 0.9

// Source yields uniform values in [0, 1).
type Source interface {
	Float64() float64
}

type Throttle struct {
	mu  sync.Mutex
	src Source
	p   float64
}

func NewThrottle(src Source) *Throttle {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Throttle{src: src, p: SuppressProbability}
}

func (t *Throttle) ShouldSuppress() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.src.Float64() < t.p
}
