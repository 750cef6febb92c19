package util

import (
	"math/rand"
	"sync"
)

func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// Roller wraps a seeded source so actor loops and the scheduler can share it.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRoller(seed int64) *Roller {
	return &Roller{rng: New(seed)}
}

// Percent rolls 1..100 and reports whether the roll landed at or under chance.
func (r *Roller) Percent(chance int) bool {
	if chance <= 0 {
		return false
	}
	if chance >= 100 {
		return true
	}
	return r.Range(1, 100) <= chance
}

// Range returns a value in [min, max].
func (r *Roller) Range(min, max int) int {
	if max <= min {
		return min
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return min + r.rng.Intn(max-min+1)
}

// Pick returns an index in [0, n), or -1 when n is zero.
func (r *Roller) Pick(n int) int {
	if n <= 0 {
		return -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

func (r *Roller) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}
