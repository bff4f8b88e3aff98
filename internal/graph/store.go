package graph

import (
	"errors"
	"fmt"
	"sync"

	"callflow/pkg/logging"

	"github.com/google/uuid"
)

const storeSubsystem = "GraphStore"

// maxIDAttempts bounds how often the store retries a colliding generator.
const maxIDAttempts = 8

var errSelfLoop = errors.New("a node cannot connect to itself")

// Options tune node placement and id generation.
type Options struct {
	IDs             IDGenerator
	StartPosition   Position
	SpawnOffset     Position
	SiblingSpacing  float64
	DuplicateOffset Position
}

// DefaultOptions returns the placement used by the editor when no config is loaded.
func DefaultOptions() Options {
	return Options{
		IDs:             UUIDGenerator{},
		StartPosition:   Position{X: 100, Y: 100},
		SpawnOffset:     Position{X: 0, Y: 150},
		DuplicateOffset: Position{X: 20, Y: 20},
	}
}

// Option mutates Options.
type Option func(*Options)

func WithIDGenerator(g IDGenerator) Option {
	return func(o *Options) { o.IDs = g }
}

func WithStartPosition(p Position) Option {
	return func(o *Options) { o.StartPosition = p }
}

func WithSpawnOffset(p Position) Option {
	return func(o *Options) { o.SpawnOffset = p }
}

// WithSiblingSpacing shifts each additional child of the same source to the right.
func WithSiblingSpacing(dx float64) Option {
	return func(o *Options) { o.SiblingSpacing = dx }
}

func WithDuplicateOffset(p Position) Option {
	return func(o *Options) { o.DuplicateOffset = p }
}

// Store owns the node collection of one call flow. It is the only place that
// mutates nodes; every accessor returns copies.
type Store struct {
	mu      sync.RWMutex
	opts    Options
	nodes   []Node
	startID string
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.IDs == nil {
		o.IDs = UUIDGenerator{}
	}
	return o
}

// New returns a store seeded with a single start node.
func New(opts ...Option) *Store {
	s := &Store{opts: buildOptions(opts)}
	s.seedStart()
	return s
}

func (s *Store) seedStart() {
	spec, _ := Lookup(TypeStart)
	s.nodes = append([]Node{{
		ID:          StartID,
		Type:        TypeStart,
		Position:    s.opts.StartPosition,
		Data:        spec.Default(),
		Connections: []string{},
	}}, s.nodes...)
	s.startID = StartID
}

// StartID returns the id of the protected start node.
func (s *Store) StartID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startID
}

// Options returns the placement options the store was built with.
func (s *Store) Options() Options {
	return s.opts
}

func (s *Store) indexOf(id string) int {
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) newID(t NodeType) string {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.opts.IDs.NextID(t)
		if s.indexOf(id) < 0 {
			return id
		}
		logging.Warn(storeSubsystem, "id generator returned existing id %s, retrying", id)
	}
	return fmt.Sprintf("%s_%s", t, uuid.NewString())
}

// AddNode creates a node of type t below sourceID and connects sourceID to it.
// It is a no-op returning false when the source does not exist or t is unknown.
// The start type cannot be added; exactly one start node exists per store.
func (s *Store) AddNode(t NodeType, sourceID string) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.indexOf(sourceID)
	if src < 0 {
		return Node{}, false
	}
	spec, ok := Lookup(t)
	if !ok || t == TypeStart {
		return Node{}, false
	}

	source := s.nodes[src]
	pos := source.Position.Add(s.opts.SpawnOffset)
	pos.X += s.opts.SiblingSpacing * float64(len(source.Connections))

	node := Node{
		ID:          s.newID(t),
		Type:        t,
		Position:    pos,
		Data:        spec.Default(),
		Connections: []string{},
	}
	s.nodes[src].Connections = append(s.nodes[src].Connections, node.ID)
	s.nodes = append(s.nodes, node)

	logging.Debug(storeSubsystem, "added %s from %s", node.ID, sourceID)
	return node.Clone(), true
}

// DeleteNode removes id and strips it from every other node's connections in
// the same operation. The start node and unknown ids are ignored.
func (s *Store) DeleteNode(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.startID {
		return false
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.nodes = append(s.nodes[:idx], s.nodes[idx+1:]...)
	for i := range s.nodes {
		s.nodes[i].Connections = without(s.nodes[i].Connections, id)
	}

	logging.Debug(storeSubsystem, "deleted %s", id)
	return true
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, c := range ids {
		if c != id {
			out = append(out, c)
		}
	}
	return out
}

// DuplicateNode copies a non-start node's data under a new id, offset from the
// original and without any edges.
func (s *Store) DuplicateNode(id string) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.startID {
		return Node{}, false
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return Node{}, false
	}
	orig := s.nodes[idx]
	dup := Node{
		ID:          s.newID(orig.Type),
		Type:        orig.Type,
		Position:    orig.Position.Add(s.opts.DuplicateOffset),
		Data:        ClonePayload(orig.Data),
		Connections: []string{},
	}
	s.nodes = append(s.nodes, dup)

	logging.Debug(storeSubsystem, "duplicated %s as %s", id, dup.ID)
	return dup.Clone(), true
}

// UpdateNodeData shallow-merges partial into the node's data. Keys absent from
// partial keep their values. A partial that does not fit the node's payload
// type leaves the node unchanged and returns an error.
func (s *Store) UpdateNodeData(id string, partial map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n := &s.nodes[idx]
	merged := MergeFields(Fields(n.Data), partial)
	p, err := DecodePayload(n.Type, merged)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	n.Data = p
	return nil
}

// ReplaceNodeData replaces the node's data wholesale.
func (s *Store) ReplaceNodeData(id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	p, err := DecodePayload(s.nodes[idx].Type, fields)
	if err != nil {
		return fmt.Errorf("replace %s: %w", id, err)
	}
	s.nodes[idx].Data = p
	return nil
}

// SetNodePosition overwrites the node's position.
func (s *Store) SetNodePosition(id string, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.nodes[idx].Position = Position{X: x, Y: y}
	return true
}

// Connect adds a programmatic edge from -> to. The insertion affordance never
// does this for terminal sources, but the model allows it.
func (s *Store) Connect(from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.indexOf(from)
	if src < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	if s.indexOf(to) < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	if to == s.startID {
		return fmt.Errorf("connect %s -> %s: %w", from, to, ErrStartProtected)
	}
	if from == to {
		return errSelfLoop
	}
	if s.nodes[src].HasConnection(to) {
		return fmt.Errorf("%s -> %s: %w", from, to, ErrDuplicateEdge)
	}
	s.nodes[src].Connections = append(s.nodes[src].Connections, to)
	return nil
}

// Disconnect removes the edge from -> to if present.
func (s *Store) Disconnect(from, to string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.indexOf(from)
	if src < 0 || !s.nodes[src].HasConnection(to) {
		return false
	}
	s.nodes[src].Connections = without(s.nodes[src].Connections, to)
	return true
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Node{}, false
	}
	return s.nodes[idx].Clone(), true
}

// Nodes returns copies of all nodes in insertion order (later nodes draw on top).
func (s *Store) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Incoming returns the ids of nodes with an edge to id. There is no reverse
// index; flows hold tens of nodes so the scan is cheap.
func (s *Store) Incoming(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, n := range s.nodes {
		if n.HasConnection(id) {
			out = append(out, n.ID)
		}
	}
	return out
}
