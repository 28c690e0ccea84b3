// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import "github.com/nope-engine/ngl/gpu"

// VariableOpts configures a Variable-category node: Eval computes the
// node's current value (a flattened float32 vector/matrix) for a
// given time, feeding shader uniforms.
type VariableOpts struct {
	Eval func(t float64) []float32
}

type variablePriv struct {
	value []float32
}

// Variable builds a node of category Variable.
func Variable(label string, opts VariableOpts) *Node {
	return NewNode(classVariable, label, opts)
}

// VariableValue returns the value computed by the most recent Update
// call.
func (n *Node) VariableValue() []float32 {
	if priv, ok := n.Priv.(*variablePriv); ok {
		return priv.value
	}
	return nil
}

var classVariable = &Class{
	Name:     "Variable",
	Category: CategoryVariable,

	Prefetch: func(n *Node, dev gpu.GPU) error {
		n.Priv = &variablePriv{}
		return nil
	},

	Update: func(n *Node, t float64) error {
		opts := n.Opts.(VariableOpts)
		priv, _ := n.Priv.(*variablePriv)
		if priv == nil || opts.Eval == nil {
			return nil
		}
		priv.value = opts.Eval(t)
		return nil
	},
}
