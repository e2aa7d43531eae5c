package runtime

import (
	"math/rand/v2"
	"sync"
)

// Picker chooses phrases uniformly at random. Safe for concurrent use.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker wraps rng. A nil rng is seeded randomly.
func NewPicker(rng *rand.Rand) *Picker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Picker{rng: rng}
}

// Pick returns one of options, or "" when there are none.
func (p *Picker) Pick(options []string) string {
	switch len(options) {
	case 0:
		return ""
	case 1:
		return options[0]
	}
	p.mu.Lock()
	i := p.rng.IntN(len(options))
	p.mu.Unlock()
	return options[i]
}
