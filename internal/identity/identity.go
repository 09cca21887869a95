// Package identity generates document identifiers.
package identity

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces globally unique, sortable tokens.
type Generator interface {
	Generate() string
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func() string

// Generate calls f.
func (f GeneratorFunc) Generate() string { return f() }

// ULID is a Generator combining a millisecond timestamp with crypto
// random entropy. Values are monotonic within one generator and do not
// collide across processes. It is safe for concurrent use.
type ULID struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewULID returns a ULID generator reading entropy from crypto/rand.
func NewULID() *ULID {
	return &ULID{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Generate returns a new 26-character ULID string.
func (g *ULID) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

var (
	defaultOnce sync.Once
	defaultGen  *ULID
)

// Default returns the process-wide ULID generator.
func Default() Generator {
	defaultOnce.Do(func() { defaultGen = NewULID() })
	return defaultGen
}

// OrDefault returns g, or Default when g is nil.
func OrDefault(g Generator) Generator {
	if g == nil {
		return Default()
	}
	return g
}
