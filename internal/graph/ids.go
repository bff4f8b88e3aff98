package graph

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces node ids. Implementations must not rely on wall-clock
// time; two nodes created in the same tick still get different ids.
type IDGenerator interface {
	NextID(t NodeType) string
}

// UUIDGenerator yields ids of the form "{type}_{8 hex chars}".
type UUIDGenerator struct{}

func (UUIDGenerator) NextID(t NodeType) string {
	return fmt.Sprintf("%s_%s", t, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// SequenceGenerator yields "{type}_{n}" from a monotonic counter shared by all types.
type SequenceGenerator struct {
	n atomic.Uint64
}

// NewSequenceGenerator returns a counter that starts after start.
func NewSequenceGenerator(start uint64) *SequenceGenerator {
	g := &SequenceGenerator{}
	g.n.Store(start)
	return g
}

func (g *SequenceGenerator) NextID(t NodeType) string {
	return fmt.Sprintf("%s_%d", t, g.n.Add(1))
}
