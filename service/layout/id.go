package layout

import (
	"fmt"
	"math/rand"
	"sync/atomic"
)

const (
	idLength     = 12
	alphanumeric = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// IDGenerator returns a fresh ID on every call. Generated IDs are never checked for collisions.
type IDGenerator func() string

// Generate12CharacterID returns a random alphanumeric ID of 12 characters
func Generate12CharacterID() string {
	b := make([]byte, idLength)
	for i := range b {
		b[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}
	return string(b)
}

// NewSequentialIDGenerator returns a deterministic generator yielding prefix-0, prefix-1, ...
func NewSequentialIDGenerator(prefix string) IDGenerator {
	var next atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, next.Add(1)-1)
	}
}

func newWhitespaceBlock(gen IDGenerator) WhitespaceBlock {
	return WhitespaceBlock{ID: whitespaceIDPrefix + gen()}
}
