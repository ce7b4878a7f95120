// Package refnum generates the human-readable reference numbers used
// across consular records (APT-202609-0421, VISA-202609-0097, ...).
// The generator does not guarantee uniqueness; the database unique
// constraint does, and callers retry with a fresh number on collision.
package refnum

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Record type prefixes.
const (
	PrefixAppointment = "APT"
	PrefixVisa        = "VISA"
	PrefixDocument    = "DOC"
	PrefixEmployee    = "EMP"
)

type Generator interface {
	// Next returns a reference of the form <PREFIX>-<YYYYMM>-<NNNN>.
	Next(prefix string) string
	// NextAnnual returns a reference of the form <PREFIX>-<YYYY>-<NNNN>,
	// used for employee IDs.
	NextAnnual(prefix string) string
}

type generator struct {
	mu  sync.Mutex
	now func() time.Time
	rnd *rand.Rand
}

func New() Generator {
	return &generator{
		now: time.Now,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewWithSource returns a generator with an injected clock and
// randomness source, for deterministic tests.
func NewWithSource(now func() time.Time, src rand.Source) Generator {
	return &generator{now: now, rnd: rand.New(src)}
}

func (g *generator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := g.now()
	return fmt.Sprintf("%s-%04d%02d-%04d", prefix, t.Year(), int(t.Month()), g.rnd.Intn(10000))
}

func (g *generator) NextAnnual(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := g.now()
	return fmt.Sprintf("%s-%04d-%04d", prefix, t.Year(), g.rnd.Intn(10000))
}
