// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package scene implements the node-graph runtime: node lifecycle
// (init/prepare/prefetch/update/draw/release/uninit), per-frame visit
// deduplication, render-range gating, the GraphicConfig override stack
// and render-to-texture nesting.
package scene

import (
	"sync"

	"github.com/google/uuid"
	"github.com/nope-engine/ngl/gpu"
	"github.com/nope-engine/ngl/internal/bitm"
	"github.com/nope-engine/ngl/internal/darray"
)

// nodeHandles allocates the stable integer handle every Node receives
// at construction. It is a single package-wide pool rather than one
// per graph since nodes can be shared across multiple parents (and,
// in principle, multiple graphs).
var (
	nodeHandlesMu sync.Mutex
	nodeHandles   bitm.Bitm[uint32]
)

// allocHandle reserves the next free slot in nodeHandles, growing the
// pool a block at a time.
func allocHandle() int {
	nodeHandlesMu.Lock()
	defer nodeHandlesMu.Unlock()
	if nodeHandles.Rem() == 0 {
		nodeHandles.Grow(1)
	}
	idx, ok := nodeHandles.Search()
	if !ok {
		panic("bitm.Bitm.Search failed after Grow")
	}
	nodeHandles.Set(idx)
	return idx
}

func freeHandle(h int) {
	nodeHandlesMu.Lock()
	defer nodeHandlesMu.Unlock()
	nodeHandles.Unset(h)
}

// Category groups node classes by activation/traversal semantics.
type Category int

// Node categories.
const (
	CategoryContainer Category = iota
	CategoryRender
	CategoryVariable
	CategoryTexture
	CategoryMedia
	CategoryRenderRange
)

// State is a node's lifecycle state.
type State int

// Node lifecycle states.
const (
	StateUninitialized State = iota
	StateInitialized
	StatePrepared
	StateActive
)

// Class is a node's class descriptor: its name, its Category (which
// governs activation semantics) and the lifecycle functions. Every
// function pointer is optional; a nil hook is a no-op.
type Class struct {
	Name     string
	Category Category

	// Init performs one-shot, non-GPU resource allocation.
	Init func(n *Node) error

	// Prepare collects the render target layout a subtree renders
	// into. Called with the layout the node's output will be
	// compatible with (zero value for non-render subtrees).
	Prepare func(n *Node, dev gpu.GPU, rt gpu.RenderTargetLayout) error

	// Prefetch runs on the node's 0->1 activation transition; it
	// allocates GPU resources against dev.
	Prefetch func(n *Node, dev gpu.GPU) error

	// Update advances time-dependent state. It is responsible for
	// recursing into whichever children the class wants evaluated
	// this frame before or after updating its own
	// state, and for (de)activating those children via ActivateSet/
	// Activate/Deactivate as appropriate.
	Update func(n *Node, t float64) error

	// Draw records GPU commands. dc carries the context performing
	// the traversal.
	Draw func(n *Node, dc *DrawContext) error

	// Release runs on the node's 1->0 activation transition; it
	// tears down GPU resources allocated by Prefetch.
	Release func(n *Node)

	// Uninit releases non-GPU resources allocated by Init.
	Uninit func(n *Node)
}

// Node is a node in the scene graph: class, label, a per-class Opts/
// Priv pair, parent/child lists, activation refcount and per-frame
// visit token.
type Node struct {
	Class *Class
	Label string

	// Opts holds the node's class-specific, caller-supplied
	// parameters. Priv holds the class-specific runtime state built
	// up by Init/Prepare/Prefetch (GPU handles, caches).
	Opts any
	Priv any

	// handle is a stable per-node integer identity, allocated from
	// nodeHandles and freed on Uninit. It gives the debug serializer
	// (serialize.go) and anything else that wants a cheap, comparable
	// key a handle that outlives any one traversal, unlike visitedAt.
	handle int

	children darray.Array[*Node]
	parents  darray.Array[*Node]

	// dev is the GPU device this node's GPU resources (if any) were
	// built against, recorded by Prepare/Activate so that Deactivate
	// can tear them down without needing a parameter threaded back
	// in from the caller.
	dev gpu.GPU

	state      State
	activation int32

	visited   bool
	visitedAt float64

	ranges []RenderRange

	// activeChildren is the set of children this node held an
	// activation on as of its last Update call, used by ActivateSet
	// to compute the ref/unref delta for the current frame.
	activeChildren darray.Array[*Node]

	// gstate is non-nil only for GraphicConfig nodes.
	gstate *GraphicsStateOverride
}

// NewNode creates a node of the given class. If label is empty, a
// uuid-backed label is generated so the debug serializer and logging
// always have a stable per-run identifier.
func NewNode(class *Class, label string, opts any) *Node {
	if label == "" {
		label = uuid.NewString()
	}
	return &Node{Class: class, Label: label, Opts: opts, handle: allocHandle()}
}

// Handle returns n's stable per-node identity. It remains valid until
// n.Uninit is called, after which it may be reused by another Node.
func (n *Node) Handle() int { return n.handle }

// Children returns n's child list. The returned slice must not be
// retained across a further AddChild/RemoveChild call.
func (n *Node) Children() []*Node { return n.children.Slice() }

// Parents returns n's parent list.
func (n *Node) Parents() []*Node { return n.parents.Slice() }

func eqNode(a, b *Node) bool { return a == b }

// AddChild inserts c as a child of n, recording n as one of c's
// parents. A child may have multiple parents; ownership flows
// from parent to child strictly through the activation refcount, not
// through this list.
func (n *Node) AddChild(c *Node) {
	n.children.Push(c)
	c.parents.Push(n)
}

// RemoveChild removes c from n's child list, if present.
func (n *Node) RemoveChild(c *Node) {
	if n.children.Remove(c, eqNode) {
		c.parents.Remove(n, eqNode)
	}
}

// State returns n's current lifecycle state.
func (n *Node) State() State { return n.state }

// Active reports whether n's activation refcount is greater than
// zero.
func (n *Node) Active() bool { return n.activation > 0 }

// Init runs the one-shot Init hook, if n has not already been
// initialized.
func (n *Node) Init() error {
	if n.state != StateUninitialized {
		return nil
	}
	if n.Class.Init != nil {
		if err := n.Class.Init(n); err != nil {
			return err
		}
	}
	n.state = StateInitialized
	return nil
}

// Prepare runs the Prepare hook against the given device and render
// target layout, initializing n first if needed.
func (n *Node) Prepare(dev gpu.GPU, rt gpu.RenderTargetLayout) error {
	if n.state == StateUninitialized {
		if err := n.Init(); err != nil {
			return err
		}
	}
	n.dev = dev
	if n.Class.Prepare != nil {
		if err := n.Class.Prepare(n, dev, rt); err != nil {
			return err
		}
	}
	if n.state < StatePrepared {
		n.state = StatePrepared
	}
	return nil
}

// Activate raises n's activation refcount, running Prefetch on the
// 0->1 transition, against the device recorded by the most
// recent Prepare call.
func (n *Node) Activate() error {
	if n.activation == 0 && n.Class.Prefetch != nil {
		if err := n.Class.Prefetch(n, n.dev); err != nil {
			return err
		}
	}
	n.activation++
	if n.state != StateUninitialized {
		n.state = StateActive
	}
	return nil
}

// Deactivate lowers n's activation refcount, running Release on the
// 1->0 transition.
func (n *Node) Deactivate() {
	if n.activation == 0 {
		return
	}
	n.activation--
	if n.activation == 0 {
		if n.Class.Release != nil {
			n.Class.Release(n)
		}
		if n.state == StateActive {
			n.state = StatePrepared
		}
	}
}

func containsNode(s []*Node, c *Node) bool {
	for _, x := range s {
		if x == c {
			return true
		}
	}
	return false
}

// ActivateSet reconciles n's activation of its dynamically-referenced
// children (e.g. the set of children a Group or RenderToTexture visits
// this frame) against the set it held last frame: children dropped
// from want are Deactivated, children newly present are Activated.
// This gives the symmetric "one activation per frame referenced"
// accounting without needing a separate end-of-frame sweep.
func (n *Node) ActivateSet(want []*Node) error {
	old := n.activeChildren.Slice()
	for _, c := range old {
		if !containsNode(want, c) {
			c.Deactivate()
		}
	}
	for _, c := range want {
		if !containsNode(old, c) {
			if err := c.Activate(); err != nil {
				return err
			}
		}
	}
	n.activeChildren.Clear()
	for _, c := range want {
		n.activeChildren.Push(c)
	}
	return nil
}

// Update is the per-frame visit entry point: it deduplicates
// against the node's visit token and, the first time through, forwards
// to the class Update hook (which is responsible for any further
// recursion). t is compared as an opaque per-frame id, not as a
// floating-point equality over rendered time.
func (n *Node) Update(t float64) error {
	if n.visited && n.visitedAt == t {
		return nil
	}
	n.visited = true
	n.visitedAt = t
	if n.Class.Update != nil {
		return n.Class.Update(n, t)
	}
	return nil
}

// Uninit releases non-GPU resources. The caller must ensure n is not
// active (activation == 0) before calling Uninit.
func (n *Node) Uninit() {
	if n.Class.Uninit != nil {
		n.Class.Uninit(n)
	}
	if n.handle >= 0 {
		freeHandle(n.handle)
		n.handle = -1
	}
	n.state = StateUninitialized
	n.visited = false
}
