package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Source draws uniform integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// cryptoSource feeds math/rand/v2 with bits from crypto/rand.
// It keeps no state, so a single instance is safe for concurrent use.
type cryptoSource struct{}

// Uint64 implements rand.Source.
func (cryptoSource) Uint64() uint64 {
	var b [8]byte

	// crypto/rand.Read never returns an error and aborts the program if the
	// OS entropy source fails.
	_, _ = crand.Read(b[:])

	return binary.LittleEndian.Uint64(b[:])
}

// NewCryptoSource returns a Source backed by crypto/rand.
// IntN on the returned generator is free of modulo bias.
func NewCryptoSource() Source {
	return rand.New(cryptoSource{})
}

// NewSeededSource returns a deterministic Source for tests and replays.
// It is not safe for concurrent use.
func NewSeededSource(seed1, seed2 uint64) Source {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// rollDie draws one face in [1, sides].
func rollDie(src Source, sides int) int {
	return src.IntN(sides) + 1
}
