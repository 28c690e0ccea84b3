// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"fmt"
	"io"

	"github.com/nope-engine/ngl/internal/bitvec"
	"github.com/nope-engine/ngl/internal/crc32ck"
)

// Serialize writes one line per node in root's subtree: its label,
// class name, a short opts summary and the indices of its children
// within the same dump. This is explicitly not a stable format
// — it exists only so two dumps of the same scene can be diffed
// during development, the way the original engine's own scene
// serializer was used for regression testing.
func Serialize(w io.Writer, root *Node) error {
	order := flatten(root)
	index := make(map[*Node]int, len(order))
	for i, n := range order {
		index[n] = i
	}
	for i, n := range order {
		children := n.Children()
		idx := make([]int, len(children))
		for j, c := range children {
			idx[j] = index[c]
		}
		line := fmt.Sprintf("%d\t%s\t%s\t%v\t%v", i, n.Label, n.Class.Name, n.Opts, idx)
		tag := crc32ck.Checksum([]byte(line))
		if _, err := fmt.Fprintf(w, "%08x\t%s\n", tag, line); err != nil {
			return err
		}
	}
	return nil
}

// flatten lists root and every descendant exactly once, in the order
// first reached by a depth-first walk. Nodes shared between parents
// (a DAG, not a tree) appear only at their first visit. Dedup is
// keyed on each Node's stable Handle rather than its pointer, using a
// bit vector instead of a map since handles are small, dense
// integers.
func flatten(root *Node) []*Node {
	if root == nil {
		return nil
	}
	var seen seenSet
	var order []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if seen.test(n.Handle()) {
			return
		}
		seen.mark(n.Handle())
		order = append(order, n)
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(root)
	return order
}

// seenSet is a growable membership set over node handles, backed by
// bitvec instead of a map[*Node]bool.
type seenSet struct {
	v bitvec.V[uint32]
}

func (s *seenSet) test(handle int) bool {
	if handle < 0 || handle >= s.v.Len() {
		return false
	}
	return s.v.IsSet(handle)
}

func (s *seenSet) mark(handle int) {
	for handle >= s.v.Len() {
		s.v.Grow(1)
	}
	s.v.Set(handle)
}
