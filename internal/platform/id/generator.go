package id

import (
	"crypto/rand"
	"encoding/hex"

	crerr "github.com/cockroachdb/errors"
	"github.com/rs/xid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// XIDGenerator returns sortable 20-char ids; used for entity public ids.
type XIDGenerator struct{}

func NewXIDGenerator() *XIDGenerator {
	return &XIDGenerator{}
}

func (g *XIDGenerator) NewID() (string, error) {
	return xid.New().String(), nil
}

// RandomGenerator returns hex encoded random bytes; used where the value must be unguessable.
type RandomGenerator struct {
	size int
}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{size: 16}
}

func (g *RandomGenerator) NewID() (string, error) {
	size := g.size
	if size <= 0 {
		size = 16
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", crerr.Wrap(err, "read random bytes")
	}

	return hex.EncodeToString(buf), nil
}
