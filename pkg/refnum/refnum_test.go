package refnum

import (
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNextFormat(t *testing.T) {
	gen := NewWithSource(fixedClock(time.Date(2026, time.September, 14, 10, 0, 0, 0, time.UTC)), rand.NewSource(1))

	ref := gen.Next(PrefixAppointment)
	assert.Regexp(t, regexp.MustCompile(`^APT-202609-\d{4}$`), ref)

	ref = gen.Next(PrefixVisa)
	assert.Regexp(t, regexp.MustCompile(`^VISA-202609-\d{4}$`), ref)
}

func TestNextAnnualFormat(t *testing.T) {
	gen := NewWithSource(fixedClock(time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)), rand.NewSource(7))

	assert.Regexp(t, regexp.MustCompile(`^EMP-2026-\d{4}$`), gen.NextAnnual(PrefixEmployee))
}

func TestDisambiguatorIsZeroPadded(t *testing.T) {
	// Source seeded so the first Intn(10000) draw is small enough to
	// need padding.
	gen := NewWithSource(fixedClock(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)), rand.NewSource(42))

	for i := 0; i < 50; i++ {
		ref := gen.Next(PrefixDocument)
		assert.Len(t, ref, len("DOC-202603-0000"))
	}
}
