// Package generator produces candidate serial numbers from a GenerationConfig.
//
// Generation is pure: it reads no shared state and never fails. Uniqueness is
// not its concern; the record store enforces it on insert.
package generator

import (
	crand "crypto/rand"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/rl1809/serial-registry/internal/core/domain"
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	DigitChars  = "0123456789"
	SymbolChars = "!@#$%^&*-_+="

	AlphanumericChars = upperChars + lowerChars + DigitChars
)

// Generator draws serial bodies from a single ChaCha8 stream. It is not safe
// for concurrent use; use the package-level Generate for independent calls.
type Generator struct {
	src *rand.ChaCha8
	rnd *rand.Rand
}

func New(src *rand.ChaCha8) *Generator {
	return &Generator{src: src, rnd: rand.New(src)}
}

// NewSeeded returns a Generator over a fresh stream seeded from crypto/rand.
func NewSeeded() *Generator {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return New(rand.NewChaCha8(seed))
}

// Generate builds one candidate with its own independently seeded source, so
// concurrent callers never observe each other's draws.
func Generate(cfg domain.GenerationConfig) string {
	return NewSeeded().Generate(cfg)
}

// Generate returns prefix + body + suffix. A bare uuid is the same formula with
// empty affixes. A Length below 1 yields an empty body.
func (g *Generator) Generate(cfg domain.GenerationConfig) string {
	return cfg.Prefix + g.body(cfg) + cfg.Suffix
}

func (g *Generator) body(cfg domain.GenerationConfig) string {
	switch cfg.Format {
	case domain.FormatAlphanumeric:
		alphabet := AlphanumericChars
		if cfg.IncludeSymbols {
			alphabet += SymbolChars
		}
		return g.draw(alphabet, cfg.Length)
	case domain.FormatNumeric:
		return g.draw(DigitChars, cfg.Length)
	default:
		return g.uuid()
	}
}

// draw picks n characters uniformly, with replacement.
func (g *Generator) draw(alphabet string, n int) string {
	if n < 1 {
		return ""
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = alphabet[g.rnd.IntN(len(alphabet))]
	}
	return string(buf)
}

func (g *Generator) uuid() string {
	id, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		// ChaCha8 reads do not fail
		return uuid.NewString()
	}
	return id.String()
}
