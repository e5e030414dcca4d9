package workload

import (
	"fmt"
	"math/rand"

	"github.com/tiersim/blocksim/internal/model"
)

// Generator produces the sequence of blocks a workload accesses:
// a pure consumer of random-number draws and producer of block
// identifiers, with no I/O and no simulator state.
type Generator interface {
	Next() model.Block
}

// Sequential cycles through [1, size] in order, wrapping around.
type Sequential struct {
	size int
	next model.Block
}

func NewSequential(size int) *Sequential {
	return &Sequential{size: size, next: 1}
}

func (g *Sequential) Next() model.Block {
	b := g.next
	g.next++
	if int(g.next) > g.size {
		g.next = 1
	}
	return b
}

// Uniform draws block ids uniformly from [1, size].
type Uniform struct {
	size int
	rng  *rand.Rand
}

func NewUniform(size int, rng *rand.Rand) *Uniform {
	return &Uniform{size: size, rng: rng}
}

func (g *Uniform) Next() model.Block {
	return model.Block(g.rng.Intn(g.size) + 1)
}

// Zipf draws block ids from a Zipfian distribution skewed toward low
// ids, modeling hot/cold access skew.
type Zipf struct {
	z *rand.Zipf
}

// NewZipf builds a Zipf generator over [1, size]. s controls skew
// (>1, larger is more skewed) and v shifts the distribution's plateau;
// 1.1 and 1.0 are reasonable defaults matching typical skewed-access
// benchmarks.
func NewZipf(size int, s, v float64, rng *rand.Rand) (*Zipf, error) {
	if size <= 0 {
		return nil, fmt.Errorf("workload: zipf pattern requires size > 0, got %d", size)
	}
	z := rand.NewZipf(rng, s, v, uint64(size-1))
	if z == nil {
		return nil, fmt.Errorf("workload: invalid zipf parameters s=%v v=%v", s, v)
	}
	return &Zipf{z: z}, nil
}

func (g *Zipf) Next() model.Block {
	return model.Block(g.z.Uint64() + 1)
}

// NewPattern constructs the generator the config's `pattern` key
// names. Valid names are "zipf", "uniform", and "sequential".
func NewPattern(name string, size int, rng *rand.Rand) (Generator, error) {
	switch name {
	case "zipf", "Zipf":
		return NewZipf(size, 1.1, 1.0, rng)
	case "uniform", "Uniform":
		return NewUniform(size, rng), nil
	case "sequential", "Sequential":
		return NewSequential(size), nil
	default:
		return nil, fmt.Errorf("workload: unknown access pattern %q", name)
	}
}
